package engine

import (
	"context"
	"fmt"

	"tourdeck/internal/domain"
	"tourdeck/internal/state"
)

// EvaluateReadiness derives the week's approval checklist from live trip
// data. It never fails: if the store cannot be read the week is reported
// not ready with the failure as a reason, so callers can always render
// something.
func (e Engine) EvaluateReadiness(ctx context.Context, seasonYear, weekNumber int) domain.GameplanReadiness {
	r := domain.GameplanReadiness{
		WeekNumber: weekNumber,
		SeasonYear: seasonYear,
	}

	trips, err := e.Repo.ActiveTripsForWeek(ctx, seasonYear, weekNumber)
	if err != nil {
		r.Reasons = append(r.Reasons, fmt.Sprintf("could not load trips: %v", err))
		return r
	}
	counts, err := e.Repo.CrewCountsForWeek(ctx, seasonYear, weekNumber)
	if err != nil {
		r.Reasons = append(r.Reasons, fmt.Sprintf("could not load crew assignments: %v", err))
		return r
	}

	r.TotalTrips = len(trips)
	for _, t := range trips {
		// Only draft and recommended trips are awaiting confirmation.
		// Operational statuses (in_transit onwards) are past that gate.
		switch t.Status {
		case state.TripConfirmed:
			r.ConfirmedTrips++
		case state.TripDraft, state.TripRecommended:
			r.UnconfirmedTrips++
		}
		if counts[t.ID] == 0 {
			r.TripsWithoutPersonnel = append(r.TripsWithoutPersonnel, t.ID)
		}
		if t.VehicleID == nil {
			r.TripsWithoutVehicle = append(r.TripsWithoutVehicle, t.ID)
		}
	}

	// Reason order is stable: emptiness, confirmation, personnel, vehicles.
	if r.TotalTrips == 0 {
		r.Reasons = append(r.Reasons, "no trips scheduled for this week")
	}
	if r.UnconfirmedTrips > 0 {
		r.Reasons = append(r.Reasons, fmt.Sprintf("%d trip(s) not confirmed", r.UnconfirmedTrips))
	}
	if n := len(r.TripsWithoutPersonnel); n > 0 {
		r.Reasons = append(r.Reasons, fmt.Sprintf("%d trip(s) have no personnel assigned", n))
	}
	if n := len(r.TripsWithoutVehicle); n > 0 {
		r.Reasons = append(r.Reasons, fmt.Sprintf("%d trip(s) have no vehicle assigned", n))
	}

	// Staffing gaps are advisory; readiness hinges on the week having
	// trips and none of them still awaiting confirmation.
	r.IsReady = r.TotalTrips > 0 && r.UnconfirmedTrips == 0
	return r
}
