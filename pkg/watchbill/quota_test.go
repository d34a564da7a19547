package watchbill

import (
	"math"
	"testing"
	"time"
)

func weightedDays(weights ...float64) []Day {
	days := make([]Day, len(weights))
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	for i, w := range weights {
		days[i] = Day{ID: int64(i + 1), Date: start.AddDate(0, 0, i), Weight: w}
	}
	return days
}

// TestCalculateQuotas_WaterfallWithCapsAndLeave covers 4 days weighted
// [1,2,1,1] (total weight 5) over 1 station. D is capped at 1 shift; C is
// on leave across the weight-2 day.
func TestCalculateQuotas_WaterfallWithCapsAndLeave(t *testing.T) {
	days := weightedDays(1, 2, 1, 1)
	groups := map[int64]personnelGroup{1: {SeniorityFactor: 1.0, MaxAssignments: 999}}

	half := 0.5
	one := 1
	memberships := []Membership{
		{ID: 1, GroupID: int64Ptr(1)},                                        // A
		{ID: 2, GroupID: int64Ptr(1), OverrideSeniorityFactor: &half},        // B
		{ID: 3, GroupID: int64Ptr(1)},                                        // C, on leave below
		{ID: 4, GroupID: int64Ptr(1), OverrideMaxAssignments: &one},          // D, capped
	}
	leaves := map[int64][]Leave{
		3: {{MembershipID: 3, StartDate: days[1].Date, EndDate: days[1].Date}},
	}

	targets := CalculateQuotas(days, 1, memberships, groups, leaves)

	sum := 0.0
	for _, v := range targets {
		sum += v
	}
	if math.Abs(sum-5.0) > 0.05 {
		t.Errorf("expected total targets near 5.0, got %v", sum)
	}

	ratioAB := targets[1] / targets[2]
	if math.Abs(ratioAB-2.0) > 0.05 {
		t.Errorf("expected q(A)/q(B) ~= 2.0, got %v", ratioAB)
	}

	ratioCA := targets[3] / targets[1]
	if math.Abs(ratioCA-0.6) > 0.05 {
		t.Errorf("expected q(C)/q(A) ~= 0.6, got %v", ratioCA)
	}

	if targets[4] > 2.0+1e-9 {
		t.Errorf("expected q(D) <= 2.0 (capped), got %v", targets[4])
	}
}

// TestCalculateQuotas_OrderIndependent verifies CalculateQuotas is
// order-independent in member input.
func TestCalculateQuotas_OrderIndependent(t *testing.T) {
	days := weightedDays(1, 2, 1, 1)
	groups := map[int64]personnelGroup{1: {SeniorityFactor: 1.0, MaxAssignments: 999}}
	forward := []Membership{
		{ID: 1, GroupID: int64Ptr(1)},
		{ID: 2, GroupID: int64Ptr(1)},
		{ID: 3, GroupID: int64Ptr(1)},
	}
	reversed := []Membership{forward[2], forward[1], forward[0]}

	a := CalculateQuotas(days, 1, forward, groups, nil)
	b := CalculateQuotas(days, 1, reversed, groups, nil)

	for id, v := range a {
		if math.Abs(v-b[id]) > 1e-9 {
			t.Errorf("order dependence detected for member %d: %v vs %v", id, v, b[id])
		}
	}
}

func int64Ptr(v int64) *int64 { return &v }
