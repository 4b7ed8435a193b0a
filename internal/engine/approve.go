package engine

import (
	"context"
	"fmt"
	"time"

	"tourdeck/internal/events"
	"tourdeck/internal/notify"
	"tourdeck/internal/state"
)

// ApprovalResult reports a gameplan approval. Locking is the only fatal
// part; notification failures and readiness gaps are carried as lists so
// the caller always learns what did happen.
type ApprovalResult struct {
	TripsLocked        int64    `json:"trips_locked"`
	NotificationsSent  int      `json:"notifications_sent"`
	ApprovedAt         string   `json:"approved_at"`
	ReadinessWarnings  []string `json:"readiness_warnings,omitempty"`
	NotificationErrors []string `json:"notification_errors,omitempty"`
}

// ApproveGameplan locks the week's plannable trips to confirmed and tells
// every assigned crew member. Approval proceeds even when readiness checks
// fail; their reasons come back as warnings. Re-approving an already locked
// week locks zero trips and resends nothing new beyond crew notifications.
func (e Engine) ApproveGameplan(ctx context.Context, seasonYear, weekNumber int, actorID string) (ApprovalResult, error) {
	if err := e.checkWeek(weekNumber); err != nil {
		return ApprovalResult{}, err
	}

	res := ApprovalResult{
		ReadinessWarnings: e.EvaluateReadiness(ctx, seasonYear, weekNumber).Reasons,
	}

	approvedAt := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ApprovalResult{}, err
	}
	defer tx.Rollback()
	locked, err := e.Repo.LockApprovableTrips(ctx, tx, seasonYear, weekNumber, approvedAt)
	if err != nil {
		return ApprovalResult{}, fmt.Errorf("lock trips: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "gameplan.approved", "", "gameplan",
		fmt.Sprintf("%d-w%d", seasonYear, weekNumber), actorID,
		events.EventPayload{"season_year": seasonYear, "week_number": weekNumber, "trips_locked": locked}); err != nil {
		return ApprovalResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return ApprovalResult{}, err
	}
	res.TripsLocked = locked
	res.ApprovedAt = approvedAt

	// Notifications are best effort. The lock has committed; a dead
	// webhook must not unwind it.
	trips, err := e.Repo.ActiveTripsForWeek(ctx, seasonYear, weekNumber)
	if err != nil {
		res.NotificationErrors = append(res.NotificationErrors, fmt.Sprintf("list trips: %v", err))
		return res, nil
	}
	for _, t := range trips {
		if t.Status != state.TripConfirmed {
			continue
		}
		crew, err := e.Repo.ListCrew(ctx, t.ID)
		if err != nil {
			res.NotificationErrors = append(res.NotificationErrors, fmt.Sprintf("trip %s crew: %v", t.ID, err))
			continue
		}
		for _, c := range crew {
			err := e.Notifier.StaffAssignment(ctx, notify.StaffAssignment{
				MemberID:   c.MemberID,
				MemberName: c.MemberName,
				TripID:     t.ID,
				WeekNumber: weekNumber,
				SeasonYear: seasonYear,
			})
			if err != nil {
				res.NotificationErrors = append(res.NotificationErrors, fmt.Sprintf("member %s: %v", c.MemberID, err))
				continue
			}
			res.NotificationsSent++
		}
	}
	return res, nil
}
