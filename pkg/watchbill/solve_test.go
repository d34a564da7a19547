package watchbill

import (
	"testing"
	"time"
)

func TestBudgetFor_ScalesWithIteration(t *testing.T) {
	b0 := BudgetFor(0, 10, 5, 0.1, 0.01)
	if b0.TimeLimit != 10*time.Second {
		t.Errorf("iteration 0: expected time limit 10s, got %v", b0.TimeLimit)
	}
	if b0.RelGap != 0.1 {
		t.Errorf("iteration 0: expected rel gap 0.1, got %v", b0.RelGap)
	}

	b3 := BudgetFor(3, 10, 5, 0.1, 0.01)
	if b3.TimeLimit != 25*time.Second {
		t.Errorf("iteration 3: expected time limit 25s, got %v", b3.TimeLimit)
	}
	want := 0.1 - 0.01*3
	if b3.RelGap < want-1e-9 || b3.RelGap > want+1e-9 {
		t.Errorf("iteration 3: expected rel gap %v, got %v", want, b3.RelGap)
	}
}

func TestBudgetFor_RelGapFloorsAtZero(t *testing.T) {
	b := BudgetFor(100, 10, 1, 0.1, 0.01)
	if b.RelGap != 0 {
		t.Errorf("expected rel gap to floor at 0, got %v", b.RelGap)
	}
}

func TestContainsMembershipSuffix(t *testing.T) {
	cases := []struct {
		name, suffix string
		want         bool
	}{
		{"excess_m12", "_m12", true},
		{"excess_m1", "_m12", false},
		{"gap1_m12_d5", "_m12", true},
		{"gap1_m120_d5", "_m12", false},
		{"short", "_m12", false},
	}
	for _, c := range cases {
		if got := containsMembershipSuffix(c.name, c.suffix); got != c.want {
			t.Errorf("containsMembershipSuffix(%q, %q) = %v, want %v", c.name, c.suffix, got, c.want)
		}
	}
}

func TestReasonFor(t *testing.T) {
	cases := map[string]string{
		"excess":      "quota_deviation",
		"shortage":    "quota_deviation",
		"gap1":        "spacing_1_day",
		"gap2":        "spacing_2_day",
		"sameweekend": "same_weekend",
		"consweekend": "consecutive_weekends",
		"dev":         "goal_deviation",
		"max_pen":     "max_pen",
	}
	for prefix, want := range cases {
		if got := reasonFor(prefix); got != want {
			t.Errorf("reasonFor(%q) = %q, want %q", prefix, got, want)
		}
	}
}
