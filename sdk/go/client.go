package tourdecksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Tourdeck HTTP API client.
type Client struct {
	BaseURL     string
	SeasonID    string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, seasonID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		SeasonID: seasonID,
		Timeout:  10 * time.Second,
	}
}

// Trip represents the API trip model (partial).
type Trip struct {
	ID         string  `json:"id"`
	SeasonID   string  `json:"season_id"`
	SeasonYear int     `json:"season_year"`
	WeekNumber int     `json:"week_number"`
	Status     string  `json:"status"`
	VehicleID  *string `json:"vehicle_id,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// Asset represents an equipment asset.
type Asset struct {
	ID             string  `json:"id"`
	SeasonID       string  `json:"season_id"`
	Name           string  `json:"name"`
	Kind           string  `json:"kind,omitempty"`
	Status         string  `json:"status"`
	CurrentTripID  *string `json:"current_trip_id,omitempty"`
	CurrentHubID   *string `json:"current_hub_id,omitempty"`
	CurrentVenueID *string `json:"current_venue_id,omitempty"`
}

// Readiness is the gameplan readiness report for a week.
type Readiness struct {
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

// Run represents an optimization run.
type Run struct {
	ID          string  `json:"id"`
	SeasonYear  int     `json:"season_year"`
	WeekNumber  int     `json:"week_number"`
	Status      string  `json:"status"`
	TriggeredBy string  `json:"triggered_by,omitempty"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// Approval is the gameplan approval outcome.
type Approval struct {
	Success           bool     `json:"success"`
	TripsLocked       int64    `json:"tripsLocked"`
	EmailsSent        int      `json:"emailsSent"`
	ApprovedAt        string   `json:"approvedAt"`
	ReadinessWarnings []string `json:"readinessWarnings"`
	EmailErrors       []string `json:"emailErrors"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	SeasonID   string `json:"season_id"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateTrip creates a trip in the configured season.
func (c *Client) CreateTrip(ctx context.Context, weekNumber int, vehicleID, notes string) (Trip, error) {
	body := map[string]any{
		"week_number": weekNumber,
	}
	if vehicleID != "" {
		body["vehicle_id"] = vehicleID
	}
	if notes != "" {
		body["notes"] = notes
	}
	var resp Trip
	err := c.do(ctx, http.MethodPost, c.seasonPath("trips"), body, &resp)
	return resp, err
}

// ListTrips returns the season's trips, optionally filtered by week.
func (c *Client) ListTrips(ctx context.Context, weekNumber int) ([]Trip, error) {
	endpoint := c.seasonPath("trips")
	if weekNumber > 0 {
		endpoint = fmt.Sprintf("%s?week_number=%d", endpoint, weekNumber)
	}
	var resp []Trip
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// SetTripStatus advances a trip through its lifecycle.
func (c *Client) SetTripStatus(ctx context.Context, tripID, status string) (Trip, error) {
	var resp Trip
	endpoint := fmt.Sprintf("v0/trips/%s/status", url.PathEscape(tripID))
	err := c.do(ctx, http.MethodPatch, endpoint, map[string]any{"status": status}, &resp)
	return resp, err
}

// MoveAsset moves an asset to a new status.
func (c *Client) MoveAsset(ctx context.Context, assetID, to, tripID, hubID, venueID string) (Asset, error) {
	body := map[string]any{"to": to}
	if tripID != "" {
		body["trip_id"] = tripID
	}
	if hubID != "" {
		body["hub_id"] = hubID
	}
	if venueID != "" {
		body["venue_id"] = venueID
	}
	var resp struct {
		Asset Asset `json:"asset"`
	}
	endpoint := fmt.Sprintf("v0/assets/%s/move", url.PathEscape(assetID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp.Asset, err
}

// Readiness returns the gameplan readiness report for a week.
func (c *Client) Readiness(ctx context.Context, seasonYear, weekNumber int) (Readiness, error) {
	var resp Readiness
	endpoint := fmt.Sprintf("v0/gameplan/readiness?season_year=%d&week_number=%d", seasonYear, weekNumber)
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ApproveGameplan locks confirmed trips for a week and notifies crews.
func (c *Client) ApproveGameplan(ctx context.Context, seasonYear, weekNumber int) (Approval, error) {
	body := map[string]any{
		"season_year": seasonYear,
		"week_number": weekNumber,
	}
	var resp Approval
	err := c.do(ctx, http.MethodPost, "v0/gameplan/approve", body, &resp)
	return resp, err
}

// Optimize dispatches an optimization run. The response body is the
// optimization engine's answer, returned verbatim.
func (c *Client) Optimize(ctx context.Context, seasonYear, weekNumber int) (json.RawMessage, error) {
	body := map[string]any{
		"season_year": seasonYear,
		"week_number": weekNumber,
	}
	var resp json.RawMessage
	err := c.do(ctx, http.MethodPost, "v0/optimize", body, &resp)
	return resp, err
}

// ListRuns returns optimization runs for a week (all weeks when 0).
func (c *Client) ListRuns(ctx context.Context, seasonYear, weekNumber int) ([]Run, error) {
	endpoint := fmt.Sprintf("v0/runs?season_year=%d", seasonYear)
	if weekNumber > 0 {
		endpoint = fmt.Sprintf("%s&week_number=%d", endpoint, weekNumber)
	}
	var resp []Run
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CompleteRun records the outcome of a run.
func (c *Client) CompleteRun(ctx context.Context, runID, status string) (Run, error) {
	var resp Run
	endpoint := fmt.Sprintf("v0/runs/%s/complete", url.PathEscape(runID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"status": status}, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) seasonPath(p string) string {
	season := url.PathEscape(c.SeasonID)
	return fmt.Sprintf("v0/seasons/%s/%s", season, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
