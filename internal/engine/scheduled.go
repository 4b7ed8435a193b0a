package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourdeck/internal/notify"
)

const defaultScheduledTimeoutSeconds = 120

// ScheduledRunOutcome is the optimizer half of a scheduled cycle.
type ScheduledRunOutcome struct {
	RunID          string `json:"run_id,omitempty"`
	TripsGenerated int    `json:"trips_generated"`
	Status         string `json:"status,omitempty"`
}

// ScheduledRunResult aggregates everything one scheduled cycle attempted.
// Failures are collected, not raised: the scheduler cannot retry a half
// finished cycle, so it always gets the whole picture.
type ScheduledRunResult struct {
	SeasonYear  int                 `json:"season_year"`
	WeekNumber  int                 `json:"week_number"`
	Optimizer   ScheduledRunOutcome `json:"optimizer"`
	OpsNotified bool                `json:"ops_notified"`
	Errors      []string            `json:"errors,omitempty"`
}

func (e Engine) scheduledTimeout() time.Duration {
	secs := defaultScheduledTimeoutSeconds
	if e.Config != nil && e.Config.Dispatch.ScheduledTimeoutSeconds > 0 {
		secs = e.Config.Dispatch.ScheduledTimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}

func (e Engine) defaultWeek() int {
	if e.Config != nil && e.Config.Dispatch.DefaultWeek > 0 {
		return e.Config.Dispatch.DefaultWeek
	}
	return 1
}

// RunScheduled executes one unattended optimization cycle: dispatch a run
// under a hard deadline, then post the ops summary whatever happened.
// Week 0 means the configured default week.
func (e Engine) RunScheduled(ctx context.Context, seasonYear, weekNumber int) ScheduledRunResult {
	if weekNumber <= 0 {
		weekNumber = e.defaultWeek()
	}
	res := ScheduledRunResult{SeasonYear: seasonYear, WeekNumber: weekNumber}

	runCtx, cancel := context.WithTimeout(ctx, e.scheduledTimeout())
	dispatched, err := e.DispatchRun(runCtx, seasonYear, weekNumber, "scheduler")
	cancel()

	summary := notify.OpsSummary{
		WeekNumber: weekNumber,
		SeasonYear: seasonYear,
	}
	switch {
	case err == nil:
		res.Optimizer = ScheduledRunOutcome{
			RunID:          dispatched.Run.ID,
			TripsGenerated: dispatched.Response.TripsGenerated,
			Status:         dispatched.Run.Status,
		}
		summary.RunID = dispatched.Run.ID
		summary.TripsGenerated = dispatched.Response.TripsGenerated
		summary.RunStatus = dispatched.Run.Status
		if !dispatched.Response.OK() {
			res.Errors = append(res.Errors, fmt.Sprintf("optimizer: upstream status %d", dispatched.Response.StatusCode))
			summary.RunError = fmt.Sprintf("upstream status %d", dispatched.Response.StatusCode)
		}
	default:
		var conflict ConflictError
		var cooldown CooldownError
		var upstream UpstreamError
		switch {
		case errors.As(err, &conflict):
			summary.RunID = conflict.ExistingRunID
		case errors.As(err, &cooldown):
			summary.RunID = cooldown.LastRunID
		case errors.As(err, &upstream):
			summary.RunID = upstream.RunID
			res.Optimizer.RunID = upstream.RunID
			res.Optimizer.Status = "failed"
		}
		res.Errors = append(res.Errors, fmt.Sprintf("optimizer: %v", err))
		summary.RunError = err.Error()
	}

	// The summary goes out even when the run did not, so operators hear
	// about broken cycles from the channel they watch.
	if nerr := e.Notifier.OpsSummary(ctx, summary); nerr != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("notify: %v", nerr))
	} else {
		res.OpsNotified = true
	}
	return res
}
