package watchbill

import (
	"fmt"
	"sort"

	"github.com/traskcs99/watchbill/internal/solver"
)

// dayStation is a (day_id, station_id) pair, used as a map key throughout
// the constraint builder.
type dayStation struct {
	DayID     int64
	StationID int64
}

// ConstraintInput is everything the model builder needs to assemble one solver.Model.
// Callers (the candidate generator) assemble this once per iteration from a
// consistent store snapshot.
type ConstraintInput struct {
	Schedule            Schedule
	Days                []Day // full window, lookback + active, sorted by date ascending
	Memberships         []Membership
	Groups              map[int64]personnelGroup // keyed by group id
	QualifiedStations   map[int64]map[int64]bool // membership id -> station id -> qualified
	StationWeights      map[int64]map[int64]float64
	Leaves              map[int64][]Leave
	Exclusions          map[int64]map[int64]bool // membership id -> day id -> excluded
	LockedAssignments   map[dayStation]int64      // active-day locked slots -> membership id
	LookbackAssignments map[dayStation]int64      // lookback-day slots with a membership (locked history)
	RequiredStationIDs  []int64
	StationNames        map[int64]string
	QuotaTargets        map[int64]float64
	WeightScale         float64 // diversification multiplier for all soft base weights; 1.0 for the baseline iteration
}

// ModelIndex records the variable index for every admissible (member, day,
// station) triple so the solver driver can read x* back into assignments.
type ModelIndex struct {
	VarOf   map[[3]int64]int // [membershipID, dayID, stationID] -> var index
	Members []int64
	Days    []Day // active days only, sorted
}

func (idx *ModelIndex) varIndex(membershipID, dayID, stationID int64) (int, bool) {
	v, ok := idx.VarOf[[3]int64{membershipID, dayID, stationID}]
	return v, ok
}

// BuildModel builds the variable set, hard constraints, and weighted
// soft-penalty terms for one solve. Returns an Infeasibility error from the
// pre-flight coverage check before ever touching the solver.
func BuildModel(in ConstraintInput) (*solver.Model, *ModelIndex, error) {
	activeDays := make([]Day, 0, len(in.Days))
	var lookback []Day
	for _, d := range in.Days {
		if d.IsLookback {
			lookback = append(lookback, d)
		} else {
			activeDays = append(activeDays, d)
		}
	}
	sort.Slice(activeDays, func(i, j int) bool { return activeDays[i].Date.Before(activeDays[j].Date) })
	sort.Slice(lookback, func(i, j int) bool { return lookback[i].Date.Before(lookback[j].Date) })

	m := solver.NewModel()
	idx := &ModelIndex{VarOf: map[[3]int64]int{}, Days: activeDays}

	isAdmissible := func(membershipID, dayID, stationID int64) bool {
		if in.QualifiedStations[membershipID] == nil || !in.QualifiedStations[membershipID][stationID] {
			return false
		}
		for _, l := range in.Leaves[membershipID] {
			day := dayByID(activeDays, dayID)
			if day != nil && !day.Date.Before(l.StartDate) && !day.Date.After(l.EndDate) {
				return false
			}
		}
		return true
	}

	for _, mem := range in.Memberships {
		idx.Members = append(idx.Members, mem.ID)
		for _, d := range activeDays {
			for _, sID := range in.RequiredStationIDs {
				if !isAdmissible(mem.ID, d.ID, sID) {
					continue
				}
				name := fmt.Sprintf("x_m%d_d%d_s%d", mem.ID, d.ID, sID)
				v := m.AddBinary(name)
				idx.VarOf[[3]int64{mem.ID, d.ID, sID}] = v
			}
		}
	}

	// Pre-flight: every active (day, station) must have at least one
	// admissible member, unless the slot is force-assigned by a lock.
	for _, d := range activeDays {
		for _, sID := range in.RequiredStationIDs {
			if _, locked := in.LockedAssignments[dayStation{d.ID, sID}]; locked {
				continue
			}
			anyAdmissible := false
			for _, mem := range in.Memberships {
				if _, ok := idx.varIndex(mem.ID, d.ID, sID); ok {
					anyAdmissible = true
					break
				}
			}
			if !anyAdmissible {
				return nil, nil, Infeasibility("no one can work %s (%s)", d.Date.Format("2006-01-02"), in.StationNames[sID])
			}
		}
	}

	// Hard 1: lock pinning.
	for ds, membershipID := range in.LockedAssignments {
		if v, ok := idx.varIndex(membershipID, ds.DayID, ds.StationID); ok {
			m.AddConstraint(fmt.Sprintf("lock_m%d_d%d_s%d", membershipID, ds.DayID, ds.StationID),
				map[int]float64{v: 1}, solver.EQ, 1)
		}
	}

	// Hard 2: coverage.
	for _, d := range activeDays {
		for _, sID := range in.RequiredStationIDs {
			terms := map[int]float64{}
			for _, mem := range in.Memberships {
				if v, ok := idx.varIndex(mem.ID, d.ID, sID); ok {
					terms[v] = 1
				}
			}
			if len(terms) > 0 {
				m.AddConstraint(fmt.Sprintf("coverage_d%d_s%d", d.ID, sID), terms, solver.EQ, 1)
			}
		}
	}

	// Hard 3: one per day.
	for _, mem := range in.Memberships {
		for _, d := range activeDays {
			terms := map[int]float64{}
			for _, sID := range in.RequiredStationIDs {
				if v, ok := idx.varIndex(mem.ID, d.ID, sID); ok {
					terms[v] = 1
				}
			}
			if len(terms) > 0 {
				m.AddConstraint(fmt.Sprintf("oneperday_m%d_d%d", mem.ID, d.ID), terms, solver.LE, 1)
			}
		}
	}

	workExpr := func(membershipID, dayID int64) map[int]float64 {
		terms := map[int]float64{}
		for _, sID := range in.RequiredStationIDs {
			if v, ok := idx.varIndex(membershipID, dayID, sID); ok {
				terms[v] = 1
			}
		}
		return terms
	}

	// Hard 4: no back-to-back within the window (active days are
	// consecutive calendar dates by construction).
	for _, mem := range in.Memberships {
		for i := 0; i+1 < len(activeDays); i++ {
			terms := map[int]float64{}
			for v, c := range workExpr(mem.ID, activeDays[i].ID) {
				terms[v] += c
			}
			for v, c := range workExpr(mem.ID, activeDays[i+1].ID) {
				terms[v] += c
			}
			if len(terms) > 0 {
				m.AddConstraint(fmt.Sprintf("b2b_m%d_d%d", mem.ID, activeDays[i].ID), terms, solver.LE, 1)
			}
		}
	}

	// Hard 5: no back-to-back across the lookback bridge. Only the day
	// immediately preceding the window start (the last lookback day)
	// bridges to the first active day.
	if len(lookback) > 0 && len(activeDays) > 0 {
		bridgeDay := lookback[len(lookback)-1]
		firstActive := activeDays[0]
		for _, mem := range in.Memberships {
			if workedBridge(in.LookbackAssignments, bridgeDay.ID, mem.ID) {
				terms := workExpr(mem.ID, firstActive.ID)
				if len(terms) > 0 {
					m.AddConstraint(fmt.Sprintf("b2b_bridge_m%d", mem.ID), terms, solver.EQ, 0)
				}
			}
		}
	}

	// Hard 6: min/max counts.
	for _, mem := range in.Memberships {
		minC, maxC := minMaxFor(mem, in.Groups)
		terms := map[int]float64{}
		for _, d := range activeDays {
			for v, c := range workExpr(mem.ID, d.ID) {
				terms[v] += c
			}
		}
		if len(terms) == 0 {
			continue
		}
		if minC > 0 {
			m.AddConstraint(fmt.Sprintf("min_m%d", mem.ID), cloneTerms(terms), solver.GE, float64(minC))
		}
		m.AddConstraint(fmt.Sprintf("max_m%d", mem.ID), cloneTerms(terms), solver.LE, float64(maxC))
	}

	// Hard 7: exclusions.
	for _, mem := range in.Memberships {
		for dayID, excluded := range in.Exclusions[mem.ID] {
			if !excluded {
				continue
			}
			terms := workExpr(mem.ID, dayID)
			if len(terms) > 0 {
				m.AddConstraint(fmt.Sprintf("excl_m%d_d%d", mem.ID, dayID), terms, solver.EQ, 0)
			}
		}
	}

	addSoftPenalties(m, idx, in, activeDays, lookback)

	return m, idx, nil
}

func workedBridge(lookbackAssignments map[dayStation]int64, bridgeDayID, membershipID int64) bool {
	for ds, mID := range lookbackAssignments {
		if ds.DayID == bridgeDayID && mID == membershipID {
			return true
		}
	}
	return false
}

func dayByID(days []Day, id int64) *Day {
	for i := range days {
		if days[i].ID == id {
			return &days[i]
		}
	}
	return nil
}

func cloneTerms(terms map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(terms))
	for k, v := range terms {
		out[k] = v
	}
	return out
}

// minMaxFor resolves membership override, then group default, then [0,999].
func minMaxFor(mem Membership, groups map[int64]personnelGroup) (int, int) {
	minC, maxC := 0, 999
	if g, ok := groups[groupIDOf(mem)]; ok {
		if g.MinAssignments > 0 {
			minC = g.MinAssignments
		}
		if g.MaxAssignments > 0 {
			maxC = g.MaxAssignments
		}
	}
	if mem.OverrideMinAssignments != nil {
		minC = *mem.OverrideMinAssignments
	}
	if mem.OverrideMaxAssignments != nil {
		maxC = *mem.OverrideMaxAssignments
	}
	return minC, maxC
}

func priorityOf(mem Membership, sc Schedule) float64 {
	if mem.GroupID != nil {
		if p, ok := sc.GroupWeights[*mem.GroupID]; ok {
			return p
		}
	}
	return 1.0
}
