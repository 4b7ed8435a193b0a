package engine

import (
	"context"
	"fmt"
	"time"

	"tourdeck/internal/domain"
	"tourdeck/internal/events"
	"tourdeck/internal/state"
)

type CreateTripOptions struct {
	ID         string
	SeasonID   string
	WeekNumber int
	Status     string
	VehicleID  string
	Notes      string
	ActorID    string
}

// CreateTrip inserts a new trip in draft status unless the caller asks for
// recommended (optimizer-produced trips enter that way).
func (e Engine) CreateTrip(ctx context.Context, opts CreateTripOptions) (domain.Trip, error) {
	if err := e.checkWeek(opts.WeekNumber); err != nil {
		return domain.Trip{}, err
	}
	status := opts.Status
	if status == "" {
		status = state.TripDraft
	}
	if status != state.TripDraft && status != state.TripRecommended {
		return domain.Trip{}, fmt.Errorf("trips start as draft or recommended, not %q", status)
	}
	season, err := e.Repo.GetSeason(ctx, opts.SeasonID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("season %s: %w", opts.SeasonID, err)
	}
	if opts.VehicleID != "" {
		if _, err := e.Repo.GetVehicle(ctx, opts.VehicleID); err != nil {
			return domain.Trip{}, fmt.Errorf("vehicle %s: %w", opts.VehicleID, err)
		}
	}

	now := e.now().UTC().Format(time.RFC3339)
	t := domain.Trip{
		ID:         opts.ID,
		SeasonID:   season.ID,
		SeasonYear: season.Year,
		WeekNumber: opts.WeekNumber,
		Status:     status,
		VehicleID:  optionalString(opts.VehicleID),
		Notes:      opts.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if t.ID == "" {
		t.ID = newID()
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Trip{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTrip(ctx, tx, t); err != nil {
		return domain.Trip{}, fmt.Errorf("insert trip: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "trip.created", t.SeasonID, "trip", t.ID, opts.ActorID,
		events.EventPayload{"week_number": t.WeekNumber, "status": t.Status}); err != nil {
		return domain.Trip{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Trip{}, err
	}
	return t, nil
}

// SetTripStatus moves a trip along the lifecycle graph. Requests for edges
// the graph does not have are rejected without touching the row.
func (e Engine) SetTripStatus(ctx context.Context, tripID, to, actorID string) (domain.Trip, error) {
	if !state.ValidTripStatus(to) {
		return domain.Trip{}, fmt.Errorf("unknown trip status %q", to)
	}
	t, err := e.Repo.GetTrip(ctx, tripID)
	if err != nil {
		return domain.Trip{}, err
	}
	if !state.IsValidTripTransition(t.Status, to) {
		return domain.Trip{}, fmt.Errorf("trip %s cannot go from %s to %s", tripID, t.Status, to)
	}

	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Trip{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateTripStatus(ctx, tx, tripID, to, now); err != nil {
		return domain.Trip{}, err
	}
	if err := e.Events.Append(ctx, tx, "trip.status", t.SeasonID, "trip", t.ID, actorID,
		events.EventPayload{"from": t.Status, "to": to}); err != nil {
		return domain.Trip{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Trip{}, err
	}
	t.Status = to
	t.UpdatedAt = now
	return t, nil
}

// TripActions returns the trip plus the next steps its status allows.
func (e Engine) TripActions(ctx context.Context, tripID string) (domain.Trip, []state.TripAction, error) {
	t, err := e.Repo.GetTrip(ctx, tripID)
	if err != nil {
		return domain.Trip{}, nil, err
	}
	return t, state.TripActions(t.Status), nil
}

// AssignVehicle sets or clears (empty vehicleID) the trip's vehicle.
func (e Engine) AssignVehicle(ctx context.Context, tripID, vehicleID, actorID string) (domain.Trip, error) {
	t, err := e.Repo.GetTrip(ctx, tripID)
	if err != nil {
		return domain.Trip{}, err
	}
	if vehicleID != "" {
		if _, err := e.Repo.GetVehicle(ctx, vehicleID); err != nil {
			return domain.Trip{}, fmt.Errorf("vehicle %s: %w", vehicleID, err)
		}
	}
	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Trip{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.SetTripVehicle(ctx, tx, tripID, optionalString(vehicleID), now); err != nil {
		return domain.Trip{}, err
	}
	if err := e.Events.Append(ctx, tx, "trip.vehicle", t.SeasonID, "trip", t.ID, actorID,
		events.EventPayload{"vehicle_id": vehicleID}); err != nil {
		return domain.Trip{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Trip{}, err
	}
	t.VehicleID = optionalString(vehicleID)
	t.UpdatedAt = now
	return t, nil
}

// AssignCrew adds one crew member to a trip.
func (e Engine) AssignCrew(ctx context.Context, tripID, memberID, memberName, role, actorID string) (domain.CrewAssignment, error) {
	if memberID == "" {
		return domain.CrewAssignment{}, fmt.Errorf("member_id required")
	}
	t, err := e.Repo.GetTrip(ctx, tripID)
	if err != nil {
		return domain.CrewAssignment{}, err
	}
	c := domain.CrewAssignment{
		TripID:     t.ID,
		MemberID:   memberID,
		MemberName: memberName,
		Role:       role,
		CreatedAt:  e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.CrewAssignment{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.AddCrew(ctx, tx, c); err != nil {
		return domain.CrewAssignment{}, fmt.Errorf("assign crew: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "trip.crew.assigned", t.SeasonID, "trip", t.ID, actorID,
		events.EventPayload{"member_id": memberID, "role": role}); err != nil {
		return domain.CrewAssignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.CrewAssignment{}, err
	}
	return c, nil
}

// UnassignCrew removes one crew member from a trip.
func (e Engine) UnassignCrew(ctx context.Context, tripID, memberID, actorID string) error {
	t, err := e.Repo.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.RemoveCrew(ctx, tx, tripID, memberID); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "trip.crew.unassigned", t.SeasonID, "trip", t.ID, actorID,
		events.EventPayload{"member_id": memberID}); err != nil {
		return err
	}
	return tx.Commit()
}

// AddStop appends a venue stop to a trip's route.
func (e Engine) AddStop(ctx context.Context, tripID, venueID string, position int, actorID string) (domain.TripStop, error) {
	t, err := e.Repo.GetTrip(ctx, tripID)
	if err != nil {
		return domain.TripStop{}, err
	}
	if _, err := e.Repo.GetVenue(ctx, venueID); err != nil {
		return domain.TripStop{}, fmt.Errorf("venue %s: %w", venueID, err)
	}
	if position <= 0 {
		stops, err := e.Repo.ListStops(ctx, tripID)
		if err != nil {
			return domain.TripStop{}, err
		}
		position = len(stops) + 1
	}
	s := domain.TripStop{
		ID:        newID(),
		TripID:    t.ID,
		VenueID:   venueID,
		Position:  position,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.TripStop{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertStop(ctx, tx, s); err != nil {
		return domain.TripStop{}, fmt.Errorf("add stop: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "trip.stop.added", t.SeasonID, "trip", t.ID, actorID,
		events.EventPayload{"venue_id": venueID, "position": position}); err != nil {
		return domain.TripStop{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TripStop{}, err
	}
	return s, nil
}
