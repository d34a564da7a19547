package watchbill

import (
	"fmt"
	"testing"
	"time"

	"github.com/traskcs99/watchbill/internal/solver"
)

func buildDays(start time.Time, n int, lookback int) []Day {
	days := make([]Day, 0, n+lookback)
	for i := 0; i < lookback; i++ {
		days = append(days, Day{
			ID:         int64(i + 1),
			Date:       start.AddDate(0, 0, -lookback+i),
			Weight:     0,
			IsLookback: true,
		})
	}
	for i := 0; i < n; i++ {
		days = append(days, Day{
			ID:     int64(lookback + i + 1),
			Date:   start.AddDate(0, 0, i),
			Weight: 1,
		})
	}
	return days
}

func baseInput(days []Day, memberships []Membership, stationID int64) ConstraintInput {
	qualified := map[int64]map[int64]bool{}
	for _, mem := range memberships {
		qualified[mem.ID] = map[int64]bool{stationID: true}
	}
	return ConstraintInput{
		Schedule:           Schedule{ID: 1},
		Days:               days,
		Memberships:        memberships,
		Groups:             map[int64]personnelGroup{},
		QualifiedStations:  qualified,
		StationWeights:     map[int64]map[int64]float64{},
		Leaves:             map[int64][]Leave{},
		Exclusions:         map[int64]map[int64]bool{},
		LockedAssignments:  map[dayStation]int64{},
		LookbackAssignments: map[dayStation]int64{},
		RequiredStationIDs: []int64{stationID},
		StationNames:       map[int64]string{stationID: "OOD"},
		QuotaTargets:       map[int64]float64{},
		WeightScale:        1.0,
	}
}

// TestBuildModel_NoBackToBack verifies a member may not work two consecutive
// active days, so a "one per pair" constraint must exist covering every
// adjacent day pair.
func TestBuildModel_NoBackToBack(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	days := buildDays(start, 3, 0)
	memberships := []Membership{{ID: 1}}
	in := baseInput(days, memberships, 100)

	m, _, err := BuildModel(in)
	if err != nil {
		t.Fatalf("BuildModel() error: %v", err)
	}

	found := 0
	for i := 0; i+1 < len(days); i++ {
		name := fmt.Sprintf("b2b_m1_d%d", days[i].ID)
		if !hasConstraint(m, name) {
			t.Errorf("expected a no-back-to-back constraint named %q", name)
		} else {
			found++
		}
	}
	if found != 2 {
		t.Errorf("expected 2 back-to-back constraints across 3 days, found %d", found)
	}
}

// TestBuildModel_QualificationGatesVariables verifies an unqualified member
// gets no decision variables for that station at all, rather than a
// constraint that merely forbids assignment.
func TestBuildModel_QualificationGatesVariables(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	days := buildDays(start, 1, 0)
	memberships := []Membership{{ID: 1}, {ID: 2}}
	in := baseInput(days, memberships, 100)
	delete(in.QualifiedStations, 2) // member 2 holds no qualification

	_, idx, err := BuildModel(in)
	if err != nil {
		t.Fatalf("BuildModel() error: %v", err)
	}
	if _, ok := idx.varIndex(1, days[0].ID, 100); !ok {
		t.Error("expected a variable for the qualified member")
	}
	if _, ok := idx.varIndex(2, days[0].ID, 100); ok {
		t.Error("expected no variable for the unqualified member")
	}
}

// TestBuildModel_LookbackBridge verifies a member who worked the last lookback
// day gets a hard constraint forcing the first active day's variable(s) to 0.
func TestBuildModel_LookbackBridge(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	days := buildDays(start, 2, 3)
	memberships := []Membership{{ID: 1}}
	in := baseInput(days, memberships, 100)

	var lookbackDays, activeDays []Day
	for _, d := range days {
		if d.IsLookback {
			lookbackDays = append(lookbackDays, d)
		} else {
			activeDays = append(activeDays, d)
		}
	}
	bridgeDay := lookbackDays[len(lookbackDays)-1]
	in.LookbackAssignments[dayStation{DayID: bridgeDay.ID, StationID: 100}] = 1

	m, idx, err := BuildModel(in)
	if err != nil {
		t.Fatalf("BuildModel() error: %v", err)
	}
	if !hasConstraint(m, "b2b_bridge_m1") {
		t.Error("expected a lookback bridge constraint for member 1")
	}
	if _, ok := idx.varIndex(1, activeDays[0].ID, 100); !ok {
		t.Fatal("expected member 1 to still have a variable on the first active day (constrained to 0, not removed)")
	}
}

// TestBuildModel_InfeasibleWhenNoOneCanCover verifies that if every member able to
// fill a slot is on leave and the slot isn't locked, BuildModel must return
// an Infeasibility error rather than silently dropping the constraint.
func TestBuildModel_InfeasibleWhenNoOneCanCover(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	days := buildDays(start, 1, 0)
	memberships := []Membership{{ID: 1}, {ID: 2}}
	in := baseInput(days, memberships, 100)
	in.Leaves[1] = []Leave{{MembershipID: 1, StartDate: days[0].Date, EndDate: days[0].Date}}
	in.Leaves[2] = []Leave{{MembershipID: 2, StartDate: days[0].Date, EndDate: days[0].Date}}

	_, _, err := BuildModel(in)
	if err == nil {
		t.Fatal("expected an Infeasibility error, got none")
	}
}

func hasConstraint(m *solver.Model, name string) bool {
	for _, c := range m.Constraints {
		if c.Name == name {
			return true
		}
	}
	return false
}
