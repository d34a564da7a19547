package watchbill

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/traskcs99/watchbill/internal/solver"
)

// StreamEvent is one newline-delimited JSON record emitted by Generate.
type StreamEvent struct {
	Type      string     `json:"type"` // progress | candidate | error | complete
	Percent   int        `json:"percent,omitempty"`
	Message   string     `json:"message,omitempty"`
	Candidate *Candidate `json:"candidate,omitempty"`
	RunID     string     `json:"run_id,omitempty"`
	Count     int        `json:"count,omitempty"`
}

// GenerateConfig carries the solver-budget scaling knobs, normally sourced
// from internal/config so they're tunable without a redeploy.
type GenerateConfig struct {
	BaseTimeLimitSeconds float64
	TimeLimitStepSeconds float64
	BaseRelGap           float64
	RelGapStep           float64
}

// Generator runs Solve repeatedly with perturbed soft weights, streaming
// progress and persisting each candidate as it's produced.
type Generator struct {
	store   *Store
	solver  solver.Solver
	cfg     GenerateConfig
	logger  *slog.Logger
	redis   *redis.Client
	buildIn func(ctx context.Context, scheduleID int64, weightScale float64) (ConstraintInput, map[int64]string, error)
}

// NewGenerator builds a Generator. buildInput assembles one consistent
// ConstraintInput snapshot per iteration; it's injected so the generator
// itself stays free of persistence-query detail.
func NewGenerator(store *Store, eng solver.Solver, cfg GenerateConfig, logger *slog.Logger, rdb *redis.Client,
	buildInput func(ctx context.Context, scheduleID int64, weightScale float64) (ConstraintInput, map[int64]string, error)) *Generator {
	return &Generator{store: store, solver: eng, cfg: cfg, logger: logger, redis: rdb, buildIn: buildInput}
}

// Generate runs N diversified iterations for scheduleID, writing one
// StreamEvent per line to w and mirroring progress events to a Redis
// stream keyed by the run id so other observers (e.g. a websocket relay)
// can follow along.
func (g *Generator) Generate(ctx context.Context, scheduleID int64, n int, w io.Writer) error {
	if n <= 0 {
		n = 5
	}
	runID := uuid.New()

	if err := g.store.DeleteCandidates(ctx, scheduleID); err != nil {
		return g.emitError(w, fmt.Sprintf("failed to clear prior candidates: %v", err))
	}

	produced := 0
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}

		weightScale := 1.0
		if i > 0 {
			weightScale = 0.85 + rand.Float64()*0.30
		}

		in, personNames, err := g.buildIn(ctx, scheduleID, weightScale)
		if err != nil {
			return g.emitError(w, err.Error())
		}

		model, idx, err := BuildModel(in)
		if err != nil {
			return g.emitError(w, err.Error())
		}

		budget := BudgetFor(i, g.cfg.BaseTimeLimitSeconds, g.cfg.TimeLimitStepSeconds, g.cfg.BaseRelGap, g.cfg.RelGapStep)

		outcome, err := Solve(ctx, g.solver, model, idx, in, budget, personNames)
		if err != nil {
			return g.emitError(w, err.Error())
		}
		if outcome.Infeasible {
			g.logger.Info("iteration produced no candidate", "schedule_id", scheduleID, "iteration", i)
			if err := g.emitProgress(ctx, w, runID, percentFor(i, n), fmt.Sprintf("iteration %d: no feasible integer solution within budget", i)); err != nil {
				return err
			}
			continue
		}

		candidate := Candidate{
			ScheduleID:  scheduleID,
			RunID:       runID,
			Iteration:   i,
			Score:       outcome.Score,
			Assignments: outcome.Assignments,
			Metrics:     outcome.Metrics,
		}
		candidate, err = g.store.CreateCandidate(ctx, candidate)
		if err != nil {
			return g.emitError(w, fmt.Sprintf("failed to persist candidate: %v", err))
		}
		produced++

		if err := g.emitCandidate(ctx, w, runID, candidate); err != nil {
			return err
		}
		if err := g.emitProgress(ctx, w, runID, percentFor(i, n), fmt.Sprintf("iteration %d complete", i)); err != nil {
			return err
		}
	}

	return g.emitComplete(w, runID, produced)
}

func percentFor(i, n int) int {
	return int(float64(i+1) / float64(n) * 100)
}

func (g *Generator) write(w io.Writer, ev StreamEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	if f, ok := w.(interface{ Flush() }); ok {
		f.Flush()
	}
	return err
}

func (g *Generator) emitProgress(ctx context.Context, w io.Writer, runID uuid.UUID, percent int, message string) error {
	if err := g.write(w, StreamEvent{Type: "progress", Percent: percent, Message: message}); err != nil {
		return err
	}
	g.mirrorToRedis(ctx, runID, "progress", message)
	return nil
}

func (g *Generator) emitCandidate(ctx context.Context, w io.Writer, runID uuid.UUID, c Candidate) error {
	if err := g.write(w, StreamEvent{Type: "candidate", Candidate: &c, Message: fmt.Sprintf("candidate %s scored %.2f", c.ID, c.Score)}); err != nil {
		return err
	}
	g.mirrorToRedis(ctx, runID, "candidate", c.ID.String())
	return nil
}

func (g *Generator) emitError(w io.Writer, message string) error {
	return g.write(w, StreamEvent{Type: "error", Message: message})
}

func (g *Generator) emitComplete(w io.Writer, runID uuid.UUID, count int) error {
	return g.write(w, StreamEvent{Type: "complete", RunID: runID.String(), Count: count})
}

// mirrorToRedis publishes a progress/candidate marker onto a per-run
// stream so other processes (e.g. a websocket relay) can tail a run
// without polling Postgres. Best-effort: failures are logged, never
// propagated, since Redis is an observability aid, not a source of truth.
func (g *Generator) mirrorToRedis(ctx context.Context, runID uuid.UUID, kind, detail string) {
	if g.redis == nil {
		return
	}
	key := fmt.Sprintf("watchbill:run:%s", runID)
	if err := g.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: key,
		Values: map[string]any{"type": kind, "detail": detail},
	}).Err(); err != nil {
		g.logger.Warn("redis progress mirror failed", "error", err, "run_id", runID)
	}
}
