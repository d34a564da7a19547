package solver

import (
	"context"
	"math"
	"sort"
	"time"
)

// Status describes how a solve attempt terminated.
type Status int

const (
	Infeasible Status = iota
	Optimal
	FeasibleWithObjective // stopped by the time limit or cancellation with an incumbent whose gap still exceeds RelGap; a stop because the gap fell within RelGap reports Optimal
	Unbounded
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case FeasibleWithObjective:
		return "feasible"
	case Unbounded:
		return "unbounded"
	default:
		return "infeasible"
	}
}

// Budget caps a solve attempt the same way PULP_CBC_CMD's timeLimit/gapRel
// knobs do: stop as soon as either the wall clock or the relative optimality
// gap crosses its threshold, and return the best incumbent found so far.
type Budget struct {
	TimeLimit time.Duration
	RelGap    float64
}

// Result is the outcome of a Solve call.
type Result struct {
	Status    Status
	Values    []float64 // one entry per Model.Vars, in index order
	Objective float64
}

// Solver solves a Model within a Budget. Implementations may be swapped out
// without touching callers that only depend on this interface.
type Solver interface {
	Solve(ctx context.Context, m *Model, budget Budget) (Result, error)
}

// BranchAndBound is the default Solver: a Big-M simplex LP relaxation at
// each node, branching on the most fractional binary variable, explored
// best-bound-first so the incumbent improves monotonically.
type BranchAndBound struct{}

// New returns the default solver.
func New() *BranchAndBound {
	return &BranchAndBound{}
}

type node struct {
	bounds lpBounds
	bound  float64 // LP relaxation objective at this node; a lower bound on any integer solution beneath it
}

// Solve runs branch-and-bound until an optimal integer solution is found,
// the model is proven infeasible, or the budget is exhausted.
func (s *BranchAndBound) Solve(ctx context.Context, m *Model, budget Budget) (Result, error) {
	deadline := time.Now().Add(budget.TimeLimit)

	root := solveLPRelaxation(m, lpBounds{})
	if root.unbounded {
		return Result{Status: Unbounded}, nil
	}
	if !root.feasible {
		return Result{Status: Infeasible}, nil
	}

	binaryVars := make([]int, 0)
	for v, vr := range m.Vars {
		if vr.Kind == Binary {
			binaryVars = append(binaryVars, v)
		}
	}

	var (
		haveIncumbent bool
		incumbent     Result
	)

	frontier := []node{{bounds: lpBounds{}, bound: root.objective}}

	for len(frontier) > 0 {
		if ctx.Err() != nil {
			break
		}
		if time.Now().After(deadline) {
			break
		}
		if haveIncumbent && relGapClosed(incumbent.Objective, bestBound(frontier), budget.RelGap) {
			break
		}

		// Best-bound-first: explore the node with the smallest LP bound,
		// since it's the most promising place an improving integer
		// solution could still be hiding.
		sort.Slice(frontier, func(i, j int) bool { return frontier[i].bound < frontier[j].bound })
		cur := frontier[0]
		frontier = frontier[1:]

		if haveIncumbent && cur.bound >= incumbent.Objective-1e-9 {
			continue // pruned: this branch cannot beat the incumbent
		}

		lp := solveLPRelaxation(m, cur.bounds)
		if !lp.feasible {
			continue
		}
		if haveIncumbent && lp.objective >= incumbent.Objective-1e-9 {
			continue
		}

		branchVar, frac := mostFractional(lp.values, binaryVars, cur.bounds, m)
		if branchVar == -1 {
			// Integer-feasible: every binary variable is at 0 or 1.
			haveIncumbent = true
			incumbent = Result{Status: Optimal, Values: append([]float64(nil), lp.values...), Objective: lp.objective}
			continue
		}
		_ = frac

		lower, upper := cur.bounds.of(m, branchVar)
		_ = lower
		_ = upper

		floorBounds := cloneBounds(cur.bounds)
		floorBounds[branchVar] = [2]float64{0, 0}
		ceilBounds := cloneBounds(cur.bounds)
		ceilBounds[branchVar] = [2]float64{1, 1}

		frontier = append(frontier,
			node{bounds: floorBounds, bound: lp.objective},
			node{bounds: ceilBounds, bound: lp.objective},
		)
	}

	if !haveIncumbent {
		// No integer-feasible node was found before the budget ran out.
		if len(frontier) == 0 {
			return Result{Status: Infeasible}, nil
		}
		return Result{Status: Infeasible}, nil
	}

	if len(frontier) > 0 && !relGapClosed(incumbent.Objective, bestBound(append(frontier, node{bound: incumbent.Objective})), budget.RelGap) {
		incumbent.Status = FeasibleWithObjective
	}

	return incumbent, nil
}

func bestBound(frontier []node) float64 {
	best := math.Inf(1)
	for _, n := range frontier {
		if n.bound < best {
			best = n.bound
		}
	}
	return best
}

func relGapClosed(incumbentObjective, bound, relGap float64) bool {
	if relGap <= 0 {
		return false
	}
	denom := math.Abs(incumbentObjective)
	if denom < 1e-9 {
		denom = 1e-9
	}
	gap := (incumbentObjective - bound) / denom
	return gap <= relGap
}

// mostFractional returns the binary variable whose relaxed value is
// farthest from 0 or 1, or -1 if every binary variable already sits at an
// integer value under the given node bounds.
func mostFractional(values []float64, binaryVars []int, bounds lpBounds, m *Model) (int, float64) {
	best := -1
	bestDist := 1e-6
	for _, v := range binaryVars {
		lo, hi := bounds.of(m, v)
		if lo == hi {
			continue // already fixed by a prior branch
		}
		frac := values[v] - math.Floor(values[v])
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			bestDist = dist
			best = v
		}
	}
	return best, bestDist
}

func cloneBounds(b lpBounds) lpBounds {
	out := make(lpBounds, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	return out
}
