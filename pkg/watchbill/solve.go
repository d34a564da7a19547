package watchbill

import (
	"context"
	"fmt"
	"time"

	"github.com/traskcs99/watchbill/internal/solver"
)

// SolveOutcome is one solve's output: assignments, per-member metrics,
// and an overall score, or a reason no candidate could be produced.
//
// The wrapped solver.BranchAndBound returns Status Infeasible both when the
// model is truly infeasible and when no integer incumbent was found before
// the budget expired. This driver cannot yet tell the two apart without a
// richer solver.Result, so both surface as Infeasible here and the
// generator treats either as "this iteration contributes no candidate".
type SolveOutcome struct {
	Infeasible  bool
	Assignments map[string]int64 // "{day_id}_{station_id}" -> membership_id
	Metrics     map[string]MemberMetric
	Score       float64
}

// Solve invokes solver.Solver on a model built by BuildModel, interprets
// the resulting status, and projects x* back into the assignments/metrics
// shape the candidate generator persists.
func Solve(ctx context.Context, eng solver.Solver, m *solver.Model, idx *ModelIndex, in ConstraintInput, budget solver.Budget, personNames map[int64]string) (SolveOutcome, error) {
	result, err := eng.Solve(ctx, m, budget)
	if err != nil {
		return SolveOutcome{}, fmt.Errorf("solving model: %w", err)
	}

	switch result.Status {
	case solver.Infeasible, solver.Unbounded:
		return SolveOutcome{Infeasible: true}, nil
	}

	assignments := map[string]int64{}
	assignedCount := map[int64]int{}
	pointsByMember := map[int64]float64{}

	for key, v := range idx.VarOf {
		membershipID, dayID, stationID := key[0], key[1], key[2]
		if result.Values[v] > 0.5 {
			assignments[fmt.Sprintf("%d_%d", dayID, stationID)] = membershipID
			assignedCount[membershipID]++
			if day := dayByID(idx.Days, dayID); day != nil {
				pointsByMember[membershipID] += day.Weight
			}
		}
	}

	metrics := make(map[string]MemberMetric, len(in.Memberships))
	score := 0.0
	for _, mem := range in.Memberships {
		name := personNames[mem.PersonID]
		breakdown := memberBreakdown(m, idx, in, mem.ID, result.Values)
		goatPoints := 0.0
		for _, p := range breakdown {
			goatPoints += p
		}
		score += goatPoints
		metrics[name] = MemberMetric{
			MembershipID:  mem.ID,
			GoatPoints:    goatPoints,
			Breakdown:     breakdown,
			Assigned:      assignedCount[mem.ID],
			Points:        pointsByMember[mem.ID],
			QuotaTarget:   in.QuotaTargets[mem.ID],
			GroupPriority: priorityOf(mem, in.Schedule),
		}
	}

	return SolveOutcome{Assignments: assignments, Metrics: metrics, Score: score}, nil
}

// memberBreakdown re-derives, from the solved objective coefficients and
// variable values, how much each penalty family contributed to one
// member's goat points. It groups by the variable-name prefix the
// constraint builder assigned (e.g. "excess_", "gap1_", "sameweekend_").
func memberBreakdown(m *solver.Model, idx *ModelIndex, in ConstraintInput, membershipID int64, values []float64) map[string]float64 {
	breakdown := map[string]float64{}
	prefix := func(name string) string {
		for i, r := range name {
			if r == '_' {
				return name[:i]
			}
		}
		return name
	}
	suffix := fmt.Sprintf("_m%d", membershipID)
	for v, coeff := range m.Objective {
		if coeff == 0 {
			continue
		}
		name := m.Vars[v].Name
		if !containsMembershipSuffix(name, suffix) {
			continue
		}
		reason := reasonFor(prefix(name))
		breakdown[reason] += coeff * values[v]
	}
	return breakdown
}

// containsMembershipSuffix reports whether name contains suffix (e.g.
// "_m12") as a complete membership-id token: the match must end the
// string or be followed by a non-digit, so "_m12" does not falsely match
// inside "_m120".
func containsMembershipSuffix(name, suffix string) bool {
	if len(name) < len(suffix) {
		return false
	}
	for i := 0; i+len(suffix) <= len(name); i++ {
		if name[i:i+len(suffix)] != suffix {
			continue
		}
		end := i + len(suffix)
		if end == len(name) || name[end] < '0' || name[end] > '9' {
			return true
		}
	}
	return false
}

func reasonFor(prefix string) string {
	switch prefix {
	case "excess", "shortage":
		return "quota_deviation"
	case "gap1":
		return "spacing_1_day"
	case "gap2":
		return "spacing_2_day"
	case "sameweekend", "same":
		return "same_weekend"
	case "consweekend", "cons":
		return "consecutive_weekends"
	case "dev":
		return "goal_deviation"
	default:
		return prefix
	}
}

// BudgetFor computes iteration i's time limit and relative-gap target:
// later iterations get more solve time and a tighter optimality gap.
func BudgetFor(iteration int, baseTime, timeStep, baseGap, gapStep float64) solver.Budget {
	timeLimit := baseTime + timeStep*float64(iteration)
	relGap := baseGap - gapStep*float64(iteration)
	if relGap < 0 {
		relGap = 0
	}
	return solver.Budget{
		TimeLimit: time.Duration(timeLimit * float64(time.Second)),
		RelGap:    relGap,
	}
}
