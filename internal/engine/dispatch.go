package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"tourdeck/internal/domain"
	"tourdeck/internal/events"
	"tourdeck/internal/optimizer"
)

const defaultCooldownSeconds = 60

// ConflictError means a pending or running optimizer run already covers the week.
type ConflictError struct {
	ExistingRunID string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("an optimizer run is already active for this week (run %s)", e.ExistingRunID)
}

// CooldownError means the last completed run finished too recently.
type CooldownError struct {
	LastRunID         string
	RetryAfterSeconds int
}

func (e CooldownError) Error() string {
	return fmt.Sprintf("optimizer ran recently (run %s); retry in %ds", e.LastRunID, e.RetryAfterSeconds)
}

// UpstreamError means the run was recorded but the optimization engine
// could not be reached.
type UpstreamError struct {
	RunID string
	Err   error
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("optimization engine unavailable (run %s marked failed): %v", e.RunID, e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }

// DispatchResult pairs the recorded run with the raw upstream response so
// HTTP handlers can proxy the engine's answer verbatim.
type DispatchResult struct {
	Run      domain.OptimizerRun
	Response *optimizer.Result
}

func (e Engine) cooldown() time.Duration {
	secs := defaultCooldownSeconds
	if e.Config != nil && e.Config.Dispatch.CooldownSeconds > 0 {
		secs = e.Config.Dispatch.CooldownSeconds
	}
	return time.Duration(secs) * time.Second
}

// DispatchRun records and forwards one optimizer run for a week. The
// conflict check, the cooldown check and the pending insert share a
// transaction; a partial unique index on active runs backstops the check
// under concurrent dispatches.
func (e Engine) DispatchRun(ctx context.Context, seasonYear, weekNumber int, triggeredBy string) (DispatchResult, error) {
	if err := e.checkWeek(weekNumber); err != nil {
		return DispatchResult{}, err
	}

	now := e.now()
	run := domain.OptimizerRun{
		ID:          newID(),
		SeasonYear:  seasonYear,
		WeekNumber:  weekNumber,
		Status:      "pending",
		TriggeredBy: triggeredBy,
		CreatedAt:   now.UTC().Format(time.RFC3339),
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return DispatchResult{}, err
	}
	defer tx.Rollback()

	if active, err := e.Repo.ActiveRunTx(ctx, tx, seasonYear, weekNumber); err == nil {
		return DispatchResult{}, ConflictError{ExistingRunID: active.ID}
	} else if !isNotFound(err) {
		return DispatchResult{}, err
	}

	if last, err := e.Repo.LatestCompletedRunTx(ctx, tx, seasonYear, weekNumber); err == nil {
		completedAt, perr := time.Parse(time.RFC3339, *last.CompletedAt)
		if perr != nil {
			return DispatchResult{}, fmt.Errorf("run %s has malformed completed_at: %w", last.ID, perr)
		}
		if remaining := e.cooldown() - now.Sub(completedAt); remaining > 0 {
			return DispatchResult{}, CooldownError{
				LastRunID:         last.ID,
				RetryAfterSeconds: int(math.Ceil(remaining.Seconds())),
			}
		}
	} else if !isNotFound(err) {
		return DispatchResult{}, err
	}

	if err := e.Repo.InsertRun(ctx, tx, run); err != nil {
		return DispatchResult{}, fmt.Errorf("record run: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "run.dispatched", "", "optimizer_run", run.ID, triggeredBy,
		events.EventPayload{"season_year": seasonYear, "week_number": weekNumber}); err != nil {
		return DispatchResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return DispatchResult{}, err
	}

	res, err := e.Optimizer.Optimize(ctx, optimizer.Request{
		SeasonYear:  seasonYear,
		WeekNumber:  weekNumber,
		TriggeredBy: triggeredBy,
	})
	if err != nil {
		failedAt := e.now().UTC().Format(time.RFC3339)
		if serr := e.Repo.SetRunStatus(ctx, run.ID, "failed", failedAt); serr == nil {
			run.Status = "failed"
			run.CompletedAt = &failedAt
		}
		return DispatchResult{Run: run}, UpstreamError{RunID: run.ID, Err: err}
	}

	// A non-success upstream status is not an error here: the handler
	// proxies the engine's answer. The run record still reflects it.
	status := "running"
	completedAt := ""
	if !res.OK() {
		status = "failed"
		completedAt = e.now().UTC().Format(time.RFC3339)
	}
	if serr := e.Repo.SetRunStatus(ctx, run.ID, status, completedAt); serr == nil {
		run.Status = status
		if completedAt != "" {
			run.CompletedAt = &completedAt
		}
	}
	return DispatchResult{Run: run, Response: res}, nil
}

// CompleteRun closes out a run once the optimization engine reports back.
// The completion timestamp it writes is what the cooldown window measures
// from.
func (e Engine) CompleteRun(ctx context.Context, runID, status, actorID string) (domain.OptimizerRun, error) {
	switch status {
	case "completed", "failed", "partial":
	default:
		return domain.OptimizerRun{}, fmt.Errorf("runs finish as completed, failed or partial, not %q", status)
	}
	run, err := e.Repo.GetRun(ctx, runID)
	if err != nil {
		return domain.OptimizerRun{}, err
	}
	if run.CompletedAt != nil {
		return domain.OptimizerRun{}, fmt.Errorf("run %s already finished as %s", runID, run.Status)
	}
	completedAt := e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.SetRunStatus(ctx, runID, status, completedAt); err != nil {
		return domain.OptimizerRun{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.OptimizerRun{}, err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, "run.finished", "", "optimizer_run", runID, actorID,
		events.EventPayload{"status": status}); err != nil {
		return domain.OptimizerRun{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.OptimizerRun{}, err
	}
	run.Status = status
	run.CompletedAt = &completedAt
	return run, nil
}
