package watchbill

import (
	"fmt"

	"github.com/traskcs99/watchbill/internal/solver"
)

// addSoftPenalties builds every soft-penalty term plus the minimax
// add-on and wires them into the model's objective.
func addSoftPenalties(m *solver.Model, idx *ModelIndex, in ConstraintInput, activeDays, lookback []Day) {
	perMemberPenalty := map[int64]map[int]float64{} // membershipID -> var -> coeff, for the minimax bound

	addTerm := func(membershipID int64, v int, coeff float64) {
		m.SetObjectiveTerm(v, coeff)
		if perMemberPenalty[membershipID] == nil {
			perMemberPenalty[membershipID] = map[int]float64{}
		}
		perMemberPenalty[membershipID][v] += coeff
	}

	scale := in.WeightScale
	if scale == 0 {
		scale = 1
	}

	for _, mem := range in.Memberships {
		priority := priorityOf(mem, in.Schedule)

		addQuotaDeviation(m, idx, in, mem, priority, scale, addTerm)
		addSpacingPenalties(m, idx, in, mem, activeDays, lookback, priority, scale, addTerm)
		addGoalDeviation(m, idx, in, mem, priority, scale, addTerm)
	}

	addWeekendPenalties(m, idx, in, activeDays, scale, addTerm)

	// Minimax fairness: MaxPen >= every member's own penalty sum; objective
	// gets 100*MaxPen so the worst-off member is also minimized.
	maxPen := m.AddVar("max_pen", solver.Continuous, 0, 1e9)
	for membershipID, terms := range perMemberPenalty {
		constraintTerms := map[int]float64{maxPen: 1}
		for v, c := range terms {
			constraintTerms[v] -= c
		}
		m.AddConstraint(fmt.Sprintf("minimax_m%d", membershipID), constraintTerms, solver.GE, 0)
	}
	m.SetObjectiveTerm(maxPen, 100)
}

// addQuotaDeviation: points(m) - target = excess - shortage; penalty =
// base*(shortage + 2*excess)*priority.
func addQuotaDeviation(m *solver.Model, idx *ModelIndex, in ConstraintInput, mem Membership, priority, scale float64, addTerm func(int64, int, float64)) {
	base := in.Schedule.WeightQuotaDeviation * scale
	target := in.QuotaTargets[mem.ID]

	pointTerms := map[int]float64{}
	for _, d := range idx.Days {
		for _, sID := range in.RequiredStationIDs {
			if v, ok := idx.varIndex(mem.ID, d.ID, sID); ok {
				pointTerms[v] += d.Weight
			}
		}
	}
	if len(pointTerms) == 0 && target == 0 {
		return
	}

	excess := m.AddVar(fmt.Sprintf("excess_m%d", mem.ID), solver.Continuous, 0, 1e9)
	shortage := m.AddVar(fmt.Sprintf("shortage_m%d", mem.ID), solver.Continuous, 0, 1e9)

	terms := map[int]float64{excess: -1, shortage: 1}
	for v, c := range pointTerms {
		terms[v] += c
	}
	m.AddConstraint(fmt.Sprintf("quotadev_m%d", mem.ID), terms, solver.EQ, target)

	addTerm(mem.ID, shortage, base*priority)
	addTerm(mem.ID, excess, 2*base*priority)
}

// addSpacingPenalties builds the 1-day and 2-day spacing gap binaries,
// including their lookback-bridge extensions.
func addSpacingPenalties(m *solver.Model, idx *ModelIndex, in ConstraintInput, mem Membership, activeDays, lookback []Day, priority, scale float64, addTerm func(int64, int, float64)) {
	work := func(dayID int64) map[int]float64 {
		terms := map[int]float64{}
		for _, sID := range in.RequiredStationIDs {
			if v, ok := idx.varIndex(mem.ID, dayID, sID); ok {
				terms[v] = 1
			}
		}
		return terms
	}

	addGap := func(label string, base float64, first, second map[int]float64, historical bool, historicalWork float64) {
		if base == 0 {
			return
		}
		if len(first) == 0 && len(second) == 0 && !historical {
			return
		}
		g := m.AddBinary(label)
		terms := map[int]float64{g: -1}
		for v, c := range first {
			terms[v] -= c
		}
		for v, c := range second {
			terms[v] -= c
		}
		rhs := -1.0 + historicalWork
		m.AddConstraint(label+"_def", terms, solver.LE, rhs)
		addTerm(mem.ID, g, base*priority)
	}

	base1 := in.Schedule.WeightSpacing1Day * scale
	base2 := in.Schedule.WeightSpacing2Day * scale

	// Within-window 1-day spacing: (d_k, d_k+2).
	for i := 0; i+2 < len(activeDays); i++ {
		addGap(fmt.Sprintf("gap1_m%d_d%d", mem.ID, activeDays[i].ID), base1,
			work(activeDays[i].ID), work(activeDays[i+2].ID), false, 0)
	}
	// Within-window 2-day spacing: (d_k, d_k+3).
	for i := 0; i+3 < len(activeDays); i++ {
		addGap(fmt.Sprintf("gap2_m%d_d%d", mem.ID, activeDays[i].ID), base2,
			work(activeDays[i].ID), work(activeDays[i+3].ID), false, 0)
	}

	// Lookback bridge extension: pair the last two lookback days with the
	// first one/two active days, using historical (constant) work values.
	if len(lookback) >= 1 && len(activeDays) >= 1 {
		lastLB := lookback[len(lookback)-1]
		historical := 0.0
		if workedBridge(in.LookbackAssignments, lastLB.ID, mem.ID) {
			historical = 1
		}
		// d-1 paired with d+1 (the second active day) is the 1-day-gap
		// variant of the lookback bridge, two calendar days apart relative
		// to the last lookback day.
		if len(activeDays) >= 2 {
			addGap(fmt.Sprintf("gap1_bridge_m%d", mem.ID), base1,
				map[int]float64{}, work(activeDays[1].ID), true, historical)
		}
	}
	if len(lookback) >= 2 && len(activeDays) >= 1 {
		secondLB := lookback[len(lookback)-2]
		historical := 0.0
		if workedBridge(in.LookbackAssignments, secondLB.ID, mem.ID) {
			historical = 1
		}
		addGap(fmt.Sprintf("gap1_bridge2_m%d", mem.ID), base1,
			map[int]float64{}, work(activeDays[0].ID), true, historical)
	}
}

// addGoalDeviation builds the per-station preference-ratio deviation terms.
func addGoalDeviation(m *solver.Model, idx *ModelIndex, in ConstraintInput, mem Membership, priority, scale float64, addTerm func(int64, int, float64)) {
	base := in.Schedule.WeightGoalDeviation * scale
	if base == 0 {
		return
	}
	weights := in.StationWeights[mem.ID]
	totalW := 0.0
	for _, w := range weights {
		totalW += w
	}
	if totalW == 0 {
		return
	}

	totalTerms := map[int]float64{}
	for _, d := range idx.Days {
		for _, sID := range in.RequiredStationIDs {
			if v, ok := idx.varIndex(mem.ID, d.ID, sID); ok {
				totalTerms[v] += 1
			}
		}
	}

	for _, sID := range in.RequiredStationIDs {
		w, ok := weights[sID]
		if !ok {
			continue
		}
		ratio := w / totalW

		actualTerms := map[int]float64{}
		for _, d := range idx.Days {
			if v, ok := idx.varIndex(mem.ID, d.ID, sID); ok {
				actualTerms[v] += 1
			}
		}
		if len(actualTerms) == 0 && len(totalTerms) == 0 {
			continue
		}

		dev := m.AddVar(fmt.Sprintf("dev_m%d_s%d", mem.ID, sID), solver.Continuous, 0, 1e9)

		// dev >= actual - ratio*total
		posTerms := map[int]float64{dev: -1}
		for v, c := range actualTerms {
			posTerms[v] += c
		}
		for v, c := range totalTerms {
			posTerms[v] -= ratio * c
		}
		m.AddConstraint(fmt.Sprintf("devpos_m%d_s%d", mem.ID, sID), posTerms, solver.LE, 0)

		// dev >= -(actual - ratio*total)
		negTerms := map[int]float64{dev: -1}
		for v, c := range actualTerms {
			negTerms[v] -= c
		}
		for v, c := range totalTerms {
			negTerms[v] += ratio * c
		}
		m.AddConstraint(fmt.Sprintf("devneg_m%d_s%d", mem.ID, sID), negTerms, solver.LE, 0)

		addTerm(mem.ID, dev, base*priority)
	}
}

// weekendCluster is a maximal run of consecutive Sat/Sun/holiday active
// days containing at least one actual Saturday or Sunday.
type weekendCluster struct {
	days []Day
}

func findWeekendClusters(activeDays []Day) []weekendCluster {
	var clusters []weekendCluster
	var cur []Day
	hasRealWeekend := false

	flush := func() {
		if len(cur) > 0 && hasRealWeekend {
			clusters = append(clusters, weekendCluster{days: append([]Day(nil), cur...)})
		}
		cur = nil
		hasRealWeekend = false
	}

	for i, d := range activeDays {
		eligible := IsWeekendDay(d)
		if eligible {
			if len(cur) > 0 {
				prev := cur[len(cur)-1]
				if d.Date.Sub(prev.Date).Hours() != 24 {
					flush()
				}
			}
			cur = append(cur, d)
			wd := d.Date.Weekday()
			if wd == 0 || wd == 6 {
				hasRealWeekend = true
			}
		} else {
			flush()
		}
		_ = i
	}
	flush()
	return clusters
}

// addWeekendPenalties builds the same-weekend and consecutive-weekends
// penalty terms, which are cluster-scoped rather than per-member-pair like
// the spacing terms.
func addWeekendPenalties(m *solver.Model, idx *ModelIndex, in ConstraintInput, activeDays []Day, scale float64, addTerm func(int64, int, float64)) {
	clusters := findWeekendClusters(activeDays)
	baseSame := in.Schedule.WeightSameWeekend * scale
	baseCons := in.Schedule.WeightConsecutiveWeekends * scale

	workedVars := make([]map[int64]int, len(clusters)) // per cluster: membershipID -> worked_C binary

	for ci, cluster := range clusters {
		workedVars[ci] = map[int64]int{}
		if len(cluster.days) <= 1 && baseSame == 0 && baseCons == 0 {
			continue
		}
		for _, mem := range in.Memberships {
			priority := priorityOf(mem, in.Schedule)
			clusterTerms := map[int]float64{}
			for _, d := range cluster.days {
				for _, sID := range in.RequiredStationIDs {
					if v, ok := idx.varIndex(mem.ID, d.ID, sID); ok {
						clusterTerms[v] += 1
					}
				}
			}
			if len(clusterTerms) == 0 {
				continue
			}

			if len(cluster.days) > 1 && baseSame != 0 {
				same := m.AddBinary(fmt.Sprintf("sameweekend_m%d_c%d", mem.ID, ci))
				terms := map[int]float64{same: -1}
				for v, c := range clusterTerms {
					terms[v] -= c
				}
				m.AddConstraint(fmt.Sprintf("sameweekend_def_m%d_c%d", mem.ID, ci), terms, solver.LE, -1)
				addTerm(mem.ID, same, baseSame*priority)
			}

			if baseCons != 0 {
				worked := m.AddVar(fmt.Sprintf("workedC_m%d_c%d", mem.ID, ci), solver.Continuous, 0, 1)
				terms := map[int]float64{worked: -float64(len(cluster.days))}
				for v, c := range clusterTerms {
					terms[v] += c
				}
				m.AddConstraint(fmt.Sprintf("workedC_def_m%d_c%d", mem.ID, ci), terms, solver.LE, 0)
				workedVars[ci][mem.ID] = worked
			}
		}
	}

	if baseCons == 0 {
		return
	}
	for ci := 0; ci+1 < len(clusters); ci++ {
		for _, mem := range in.Memberships {
			wc1, ok1 := workedVars[ci][mem.ID]
			wc2, ok2 := workedVars[ci+1][mem.ID]
			if !ok1 || !ok2 {
				continue
			}
			priority := priorityOf(mem, in.Schedule)
			cons := m.AddBinary(fmt.Sprintf("consweekend_m%d_c%d", mem.ID, ci))
			terms := map[int]float64{cons: -1, wc1: 1, wc2: 1}
			m.AddConstraint(fmt.Sprintf("consweekend_def_m%d_c%d", mem.ID, ci), terms, solver.LE, 1)
			addTerm(mem.ID, cons, baseCons*priority)
		}
	}
}
