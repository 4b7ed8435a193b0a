package server

import (
	"tourdeck/internal/domain"
	"tourdeck/internal/state"
)

type CreateSeasonRequest struct {
	ID    string `json:"id"`
	Year  int    `json:"year"`
	Label string `json:"label,omitempty"`
}

type SeasonResponse struct {
	ID        string `json:"id"`
	Year      int    `json:"year"`
	Label     string `json:"label,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type CreateVehicleRequest struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity,omitempty"`
}

type VehicleResponse struct {
	ID       string `json:"id"`
	SeasonID string `json:"season_id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity,omitempty"`
}

type CreatePlaceRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

type PlaceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

type CreateTripRequest struct {
	ID         string `json:"id,omitempty"`
	WeekNumber int    `json:"week_number"`
	Status     string `json:"status,omitempty" enum:",draft,recommended"`
	VehicleID  string `json:"vehicle_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type TripResponse struct {
	ID         string  `json:"id"`
	SeasonID   string  `json:"season_id"`
	SeasonYear int     `json:"season_year"`
	WeekNumber int     `json:"week_number"`
	Status     string  `json:"status"`
	VehicleID  *string `json:"vehicle_id,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type SetTripStatusRequest struct {
	Status string `json:"status"`
}

type TripActionsResponse struct {
	TripID  string             `json:"trip_id"`
	Status  string             `json:"status"`
	Actions []state.TripAction `json:"actions"`
}

type AssignVehicleRequest struct {
	VehicleID string `json:"vehicle_id,omitempty"`
}

type AssignCrewRequest struct {
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name,omitempty"`
	Role       string `json:"role,omitempty"`
}

type CrewResponse struct {
	TripID     string `json:"trip_id"`
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name,omitempty"`
	Role       string `json:"role,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type AddStopRequest struct {
	VenueID  string `json:"venue_id"`
	Position int    `json:"position,omitempty"`
}

type StopResponse struct {
	ID       string `json:"id"`
	TripID   string `json:"trip_id"`
	VenueID  string `json:"venue_id"`
	Position int    `json:"position"`
}

type RegisterAssetRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Kind  string `json:"kind,omitempty"`
	HubID string `json:"hub_id,omitempty"`
}

type AssetResponse struct {
	ID             string  `json:"id"`
	SeasonID       string  `json:"season_id"`
	Name           string  `json:"name"`
	Kind           string  `json:"kind,omitempty"`
	Status         string  `json:"status"`
	CurrentTripID  *string `json:"current_trip_id,omitempty"`
	CurrentHubID   *string `json:"current_hub_id,omitempty"`
	CurrentVenueID *string `json:"current_venue_id,omitempty"`
	UpdatedAt      string  `json:"updated_at"`
}

type MoveAssetRequest struct {
	To      string `json:"to"`
	TripID  string `json:"trip_id,omitempty"`
	HubID   string `json:"hub_id,omitempty"`
	VenueID string `json:"venue_id,omitempty"`
	Note    string `json:"note,omitempty"`
}

type MovementResponse struct {
	ID               string  `json:"id"`
	AssetID          string  `json:"asset_id"`
	FromLocationType string  `json:"from_location_type"`
	FromLocationID   *string `json:"from_location_id,omitempty"`
	FromLocationName string  `json:"from_location_name,omitempty"`
	ToLocationType   string  `json:"to_location_type"`
	ToLocationID     *string `json:"to_location_id,omitempty"`
	ToLocationName   string  `json:"to_location_name,omitempty"`
	TripID           *string `json:"trip_id,omitempty"`
	MovedAt          string  `json:"moved_at"`
	Notes            string  `json:"notes,omitempty"`
}

type MoveAssetResponse struct {
	Asset    AssetResponse    `json:"asset"`
	Movement MovementResponse `json:"movement"`
}

type ReadinessResponse struct {
	WeekNumber            int      `json:"week_number"`
	SeasonYear            int      `json:"season_year"`
	TotalTrips            int      `json:"total_trips"`
	ConfirmedTrips        int      `json:"confirmed_trips"`
	UnconfirmedTrips      int      `json:"unconfirmed_trips"`
	TripsWithoutPersonnel []string `json:"trips_without_personnel,omitempty"`
	TripsWithoutVehicle   []string `json:"trips_without_vehicle,omitempty"`
	IsReady               bool     `json:"is_ready"`
	Reasons               []string `json:"reasons,omitempty"`
}

type RunResponse struct {
	ID          string  `json:"id"`
	SeasonYear  int     `json:"season_year"`
	WeekNumber  int     `json:"week_number"`
	Status      string  `json:"status"`
	TriggeredBy string  `json:"triggered_by,omitempty"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

type CompleteRunRequest struct {
	Status string `json:"status" enum:"completed,failed,partial"`
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	SeasonID   string `json:"season_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

func seasonResponse(s domain.Season) SeasonResponse {
	return SeasonResponse{ID: s.ID, Year: s.Year, Label: s.Label, Status: s.Status, CreatedAt: s.CreatedAt}
}

func vehicleResponse(v domain.Vehicle) VehicleResponse {
	return VehicleResponse{ID: v.ID, SeasonID: v.SeasonID, Name: v.Name, Capacity: v.Capacity}
}

func tripResponse(t domain.Trip) TripResponse {
	return TripResponse{
		ID:         t.ID,
		SeasonID:   t.SeasonID,
		SeasonYear: t.SeasonYear,
		WeekNumber: t.WeekNumber,
		Status:     t.Status,
		VehicleID:  t.VehicleID,
		Notes:      t.Notes,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func mapTrips(items []domain.Trip) []TripResponse {
	out := make([]TripResponse, 0, len(items))
	for _, t := range items {
		out = append(out, tripResponse(t))
	}
	return out
}

func crewResponse(c domain.CrewAssignment) CrewResponse {
	return CrewResponse{TripID: c.TripID, MemberID: c.MemberID, MemberName: c.MemberName, Role: c.Role, CreatedAt: c.CreatedAt}
}

func stopResponse(s domain.TripStop) StopResponse {
	return StopResponse{ID: s.ID, TripID: s.TripID, VenueID: s.VenueID, Position: s.Position}
}

func assetResponse(a domain.Asset) AssetResponse {
	return AssetResponse{
		ID:             a.ID,
		SeasonID:       a.SeasonID,
		Name:           a.Name,
		Kind:           a.Kind,
		Status:         a.Status,
		CurrentTripID:  a.CurrentTripID,
		CurrentHubID:   a.CurrentHubID,
		CurrentVenueID: a.CurrentVenueID,
		UpdatedAt:      a.UpdatedAt,
	}
}

func movementResponse(m domain.AssetMovement) MovementResponse {
	return MovementResponse{
		ID:               m.ID,
		AssetID:          m.AssetID,
		FromLocationType: m.FromLocationType,
		FromLocationID:   m.FromLocationID,
		FromLocationName: m.FromLocationName,
		ToLocationType:   m.ToLocationType,
		ToLocationID:     m.ToLocationID,
		ToLocationName:   m.ToLocationName,
		TripID:           m.TripID,
		MovedAt:          m.MovedAt,
		Notes:            m.Notes,
	}
}

func readinessResponse(r domain.GameplanReadiness) ReadinessResponse {
	return ReadinessResponse{
		WeekNumber:            r.WeekNumber,
		SeasonYear:            r.SeasonYear,
		TotalTrips:            r.TotalTrips,
		ConfirmedTrips:        r.ConfirmedTrips,
		UnconfirmedTrips:      r.UnconfirmedTrips,
		TripsWithoutPersonnel: r.TripsWithoutPersonnel,
		TripsWithoutVehicle:   r.TripsWithoutVehicle,
		IsReady:               r.IsReady,
		Reasons:               r.Reasons,
	}
}

func runResponse(run domain.OptimizerRun) RunResponse {
	return RunResponse{
		ID:          run.ID,
		SeasonYear:  run.SeasonYear,
		WeekNumber:  run.WeekNumber,
		Status:      run.Status,
		TriggeredBy: run.TriggeredBy,
		CreatedAt:   run.CreatedAt,
		CompletedAt: run.CompletedAt,
	}
}

func eventResponse(evt domain.Event) EventResponse {
	return EventResponse{
		ID:         evt.ID,
		TS:         evt.TS,
		Type:       evt.Type,
		SeasonID:   evt.SeasonID,
		EntityKind: evt.EntityKind,
		EntityID:   evt.EntityID,
		ActorID:    evt.ActorID,
		Payload:    evt.Payload,
	}
}
