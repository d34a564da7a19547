package watchbill

import "math"

// quotaMember is the subset of membership data the waterfall needs:
// availability ratio, seniority factor, and shift cap already resolved
// from override-then-group-default precedence.
type quotaMember struct {
	membershipID int64
	availRatio   float64
	seniority    float64
	capShifts    float64 // math.Inf(1) when uncapped
}

// CalculateQuotas is the waterfall fair-share calculator.
// days must already exclude lookback days. It returns membership_id ->
// target_points, rounded to two decimals.
func CalculateQuotas(days []Day, numStations int, memberships []Membership, groups map[int64]personnelGroup, leavesByMembership map[int64][]Leave) map[int64]float64 {
	tCal := 0.0
	maxWeight := 0.0
	for _, d := range days {
		tCal += d.Weight
		if d.Weight > maxWeight {
			maxWeight = d.Weight
		}
	}
	total := tCal * float64(numStations)

	members := make([]quotaMember, 0, len(memberships))
	for _, m := range memberships {
		seniority := 1.0
		capShifts := math.Inf(1)
		if g, ok := groups[groupIDOf(m)]; ok {
			seniority = g.SeniorityFactor
			if g.MaxAssignments > 0 {
				capShifts = float64(g.MaxAssignments)
			}
		}
		if m.OverrideSeniorityFactor != nil {
			seniority = *m.OverrideSeniorityFactor
		}
		if m.OverrideMaxAssignments != nil {
			capShifts = float64(*m.OverrideMaxAssignments)
		}

		leaveDeduction := 0.0
		for _, l := range leavesByMembership[m.ID] {
			for _, d := range days {
				if !d.Date.Before(l.StartDate) && !d.Date.After(l.EndDate) {
					leaveDeduction += d.Weight
				}
			}
		}
		availPoints := tCal - leaveDeduction
		availRatio := 0.0
		if tCal > 0 {
			availRatio = availPoints / tCal
		}

		members = append(members, quotaMember{
			membershipID: m.ID,
			availRatio:   availRatio,
			seniority:    seniority,
			capShifts:    capShifts,
		})
	}

	return waterfall(members, total, maxWeight)
}

// personnelGroup is the subset of a Group's fields the quota calculator
// needs, kept local so this package doesn't import pkg/personnel just for
// two fields.
type personnelGroup struct {
	SeniorityFactor float64
	MinAssignments  int
	MaxAssignments  int
}

func groupIDOf(m Membership) int64 {
	if m.GroupID == nil {
		return 0
	}
	return *m.GroupID
}

// waterfall implements the deterministic capped redistribution: members
// capped below their fair share give up their surplus, which is
// redistributed proportionally among the remaining uncapped members.
func waterfall(members []quotaMember, total, maxWeight float64) map[int64]float64 {
	targets := make(map[int64]float64, len(members))
	capPts := make(map[int64]float64, len(members))
	active := make(map[int64]bool, len(members))
	rw := make(map[int64]float64, len(members))

	for _, m := range members {
		targets[m.membershipID] = 0
		active[m.membershipID] = true
		rw[m.membershipID] = m.availRatio * m.seniority
		if math.IsInf(m.capShifts, 1) {
			capPts[m.membershipID] = math.Inf(1)
		} else {
			capPts[m.membershipID] = m.capShifts * maxWeight
		}
	}

	remaining := total
	for {
		sumRW := 0.0
		anyActive := false
		for _, m := range members {
			if active[m.membershipID] {
				anyActive = true
				sumRW += rw[m.membershipID]
			}
		}
		if !anyActive || sumRW == 0 {
			break
		}

		share := make(map[int64]float64, len(members))
		for _, m := range members {
			if active[m.membershipID] {
				share[m.membershipID] = rw[m.membershipID] / sumRW * remaining
			}
		}

		offenders := []int64{}
		for id, sh := range share {
			if sh > capPts[id] {
				offenders = append(offenders, id)
			}
		}

		if len(offenders) == 0 {
			for id, sh := range share {
				targets[id] = sh
			}
			break
		}

		for _, id := range offenders {
			targets[id] = capPts[id]
			active[id] = false
			remaining -= capPts[id]
		}
	}

	out := make(map[int64]float64, len(targets))
	for id, t := range targets {
		out[id] = math.Round(t*100) / 100
	}
	return out
}
