package solver

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestBranchAndBound_SimpleAssignment(t *testing.T) {
	// Two people, one slot to fill, person B is cheaper to assign.
	m := NewModel()
	a := m.AddBinary("assign_a")
	b := m.AddBinary("assign_b")
	m.AddConstraint("cover", map[int]float64{a: 1, b: 1}, EQ, 1)
	m.SetObjectiveTerm(a, 10)
	m.SetObjectiveTerm(b, 1)

	res, err := New().Solve(context.Background(), m, Budget{TimeLimit: time.Second, RelGap: 0})
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if res.Status != Optimal {
		t.Fatalf("expected Optimal, got %s", res.Status)
	}
	if math.Abs(res.Values[b]-1) > 1e-6 || math.Abs(res.Values[a]) > 1e-6 {
		t.Errorf("expected b=1, a=0, got a=%v b=%v", res.Values[a], res.Values[b])
	}
	if math.Abs(res.Objective-1) > 1e-6 {
		t.Errorf("expected objective 1, got %v", res.Objective)
	}
}

func TestBranchAndBound_Infeasible(t *testing.T) {
	m := NewModel()
	a := m.AddBinary("a")
	// Force the coverage requirement to 2 when only one binary variable exists.
	m.AddConstraint("impossible", map[int]float64{a: 1}, EQ, 2)

	res, err := New().Solve(context.Background(), m, Budget{TimeLimit: time.Second})
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if res.Status != Infeasible {
		t.Fatalf("expected Infeasible, got %s", res.Status)
	}
}

func TestBranchAndBound_RespectsExclusion(t *testing.T) {
	// Two mutually exclusive binaries can't both be 1.
	m := NewModel()
	x := m.AddBinary("x")
	y := m.AddBinary("y")
	m.AddConstraint("mutex", map[int]float64{x: 1, y: 1}, LE, 1)
	m.SetObjectiveTerm(x, -1)
	m.SetObjectiveTerm(y, -1)

	res, err := New().Solve(context.Background(), m, Budget{TimeLimit: time.Second})
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if res.Status != Optimal {
		t.Fatalf("expected Optimal, got %s", res.Status)
	}
	if res.Values[x]+res.Values[y] > 1+1e-6 {
		t.Errorf("mutex constraint violated: x=%v y=%v", res.Values[x], res.Values[y])
	}
}
