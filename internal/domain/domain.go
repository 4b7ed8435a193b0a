package domain

type Season struct {
	ID        string `json:"id"`
	Year      int    `json:"year"`
	Label     string `json:"label,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Vehicle struct {
	ID        string `json:"id"`
	SeasonID  string `json:"season_id"`
	Name      string `json:"name"`
	Capacity  int    `json:"capacity,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Hub struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Venue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

type Trip struct {
	ID         string  `json:"id"`
	SeasonID   string  `json:"season_id"`
	SeasonYear int     `json:"season_year"`
	WeekNumber int     `json:"week_number"`
	Status     string  `json:"status" enum:"draft,recommended,confirmed,in_transit,on_site,returning,completed,cancelled"`
	VehicleID  *string `json:"vehicle_id,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
	UpdatedAt  string  `json:"updated_at" format:"date-time"`
}

type CrewAssignment struct {
	TripID     string `json:"trip_id"`
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name,omitempty"`
	Role       string `json:"role,omitempty"`
	CreatedAt  string `json:"created_at" format:"date-time"`
}

type TripStop struct {
	ID        string `json:"id"`
	TripID    string `json:"trip_id"`
	VenueID   string `json:"venue_id"`
	Position  int    `json:"position"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Asset struct {
	ID             string  `json:"id"`
	SeasonID       string  `json:"season_id"`
	Name           string  `json:"name"`
	Kind           string  `json:"kind,omitempty"`
	Status         string  `json:"status" enum:"at_hub,loaded,in_transit,on_site,returning,rebranding"`
	CurrentTripID  *string `json:"current_trip_id,omitempty"`
	CurrentHubID   *string `json:"current_hub_id,omitempty"`
	CurrentVenueID *string `json:"current_venue_id,omitempty"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
	UpdatedAt      string  `json:"updated_at" format:"date-time"`
}

// AssetMovement is an append-only audit row; it is never updated or deleted.
type AssetMovement struct {
	ID               string  `json:"id"`
	AssetID          string  `json:"asset_id"`
	FromLocationType string  `json:"from_location_type"`
	FromLocationID   *string `json:"from_location_id,omitempty"`
	FromLocationName string  `json:"from_location_name,omitempty"`
	ToLocationType   string  `json:"to_location_type"`
	ToLocationID     *string `json:"to_location_id,omitempty"`
	ToLocationName   string  `json:"to_location_name,omitempty"`
	TripID           *string `json:"trip_id,omitempty"`
	MovedAt          string  `json:"moved_at" format:"date-time"`
	Notes            string  `json:"notes,omitempty"`
}

type OptimizerRun struct {
	ID          string  `json:"id"`
	SeasonYear  int     `json:"season_year"`
	WeekNumber  int     `json:"week_number"`
	Status      string  `json:"status" enum:"pending,running,completed,failed,partial"`
	TriggeredBy string  `json:"triggered_by,omitempty"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
	CompletedAt *string `json:"completed_at,omitempty" format:"date-time"`
}

// GameplanReadiness is derived on demand and never persisted.
type GameplanReadiness struct {
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

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	SeasonID   string `json:"season_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
