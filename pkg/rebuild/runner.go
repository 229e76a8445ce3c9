package rebuild

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/kudusql/pkg/core"
)

// Execer runs a statement.
type Execer interface {
	Execute(ctx context.Context, sql string) error
}

// Runner executes plans and journals their progress.
type Runner struct {
	exec    Execer
	journal Journal
	logger  *slog.Logger
}

// NewRunner creates a runner. A nil journal keeps progress in memory.
func NewRunner(exec Execer, journal Journal, logger *slog.Logger) *Runner {
	if journal == nil {
		journal = NewMemoryJournal()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{exec: exec, journal: journal, logger: logger}
}

// Journal returns the runner's journal.
func (r *Runner) Journal() Journal {
	return r.journal
}

// Run journals plan and executes every step. A failing step stops the
// rebuild and returns a *core.RebuildError naming it; the tables are left
// as they are and the plan can be resumed.
func (r *Runner) Run(ctx context.Context, plan *Plan) error {
	if err := r.journal.Begin(ctx, plan); err != nil {
		return fmt.Errorf("failed to journal rebuild of %s: %w", plan.Table, err)
	}
	r.logger.Info("rebuild started",
		slog.String("id", plan.ID),
		slog.String("table", plan.Table),
		slog.String("kind", string(plan.Kind)),
		slog.Int("steps", len(plan.Steps)))
	return r.runFrom(ctx, plan, 0, 0)
}

// Resume continues a journaled rebuild at its first statement not yet
// applied, so a step that failed half way is not repeated from the start.
// A completed rebuild is a no-op.
func (r *Runner) Resume(ctx context.Context, id string) error {
	rec, err := r.journal.Load(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status == StatusCompleted {
		r.logger.Info("rebuild already completed", slog.String("id", id))
		return nil
	}
	r.logger.Info("rebuild resumed",
		slog.String("id", id),
		slog.String("step", rec.CurrentStep()),
		slog.Int("statement", rec.NextStatement+1))
	return r.runFrom(ctx, &rec.Plan, rec.NextStep, rec.NextStatement)
}

func (r *Runner) runFrom(ctx context.Context, plan *Plan, startStep, startStmt int) error {
	for i := startStep; i < len(plan.Steps); i++ {
		step := plan.Steps[i]
		first := 0
		if i == startStep {
			first = startStmt
		}
		for j := first; j < len(step.Statements); j++ {
			if err := r.exec.Execute(ctx, step.Statements[j]); err != nil {
				if jerr := r.journal.Fail(ctx, plan.ID, err); jerr != nil {
					r.logger.Error("failed to journal rebuild failure", slog.String("id", plan.ID), slog.String("error", jerr.Error()))
				}
				r.logger.Error("rebuild step failed",
					slog.String("id", plan.ID),
					slog.String("table", plan.Table),
					slog.String("step", step.Name),
					slog.Int("statement", j+1),
					slog.String("error", err.Error()))
				return &core.RebuildError{ID: plan.ID, Table: plan.Table, Step: step.Name, Applied: j, Err: err}
			}
			next, nextStmt := i, j+1
			if nextStmt == len(step.Statements) {
				next, nextStmt = i+1, 0
			}
			if err := r.journal.Advance(ctx, plan.ID, next, nextStmt); err != nil {
				return &core.RebuildError{ID: plan.ID, Table: plan.Table, Step: step.Name, Applied: j + 1, Err: fmt.Errorf("journal: %w", err)}
			}
		}
		r.logger.Info("rebuild step completed", slog.String("id", plan.ID), slog.String("step", step.Name))
	}
	if err := r.journal.Complete(ctx, plan.ID); err != nil {
		return fmt.Errorf("failed to journal completion of rebuild %s: %w", plan.ID, err)
	}
	return nil
}
