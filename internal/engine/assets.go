package engine

import (
	"context"
	"fmt"
	"time"

	"tourdeck/internal/domain"
	"tourdeck/internal/events"
	"tourdeck/internal/state"
)

type RegisterAssetOptions struct {
	ID       string
	SeasonID string
	Name     string
	Kind     string
	HubID    string
	ActorID  string
}

// RegisterAsset creates an asset resting at its home hub.
func (e Engine) RegisterAsset(ctx context.Context, opts RegisterAssetOptions) (domain.Asset, error) {
	if opts.Name == "" {
		return domain.Asset{}, fmt.Errorf("name required")
	}
	season, err := e.Repo.GetSeason(ctx, opts.SeasonID)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("season %s: %w", opts.SeasonID, err)
	}
	if opts.HubID != "" {
		if _, err := e.Repo.GetHub(ctx, opts.HubID); err != nil {
			return domain.Asset{}, fmt.Errorf("hub %s: %w", opts.HubID, err)
		}
	}

	now := e.now().UTC().Format(time.RFC3339)
	a := domain.Asset{
		ID:           opts.ID,
		SeasonID:     season.ID,
		Name:         opts.Name,
		Kind:         opts.Kind,
		Status:       state.AssetAtHub,
		CurrentHubID: optionalString(opts.HubID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if a.ID == "" {
		a.ID = newID()
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Asset{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAsset(ctx, tx, a); err != nil {
		return domain.Asset{}, fmt.Errorf("insert asset: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "asset.registered", a.SeasonID, "asset", a.ID, opts.ActorID,
		events.EventPayload{"name": a.Name, "hub_id": opts.HubID}); err != nil {
		return domain.Asset{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Asset{}, err
	}
	return a, nil
}

type MoveAssetOptions struct {
	AssetID string
	To      string
	TripID  string
	HubID   string
	VenueID string
	Note    string
	ActorID string
}

// MoveAsset transitions an asset to the requested status. The location
// pointers and the movement audit row are both derived from the same
// transition context, then written in one transaction with the event.
func (e Engine) MoveAsset(ctx context.Context, opts MoveAssetOptions) (domain.Asset, domain.AssetMovement, error) {
	if !state.ValidAssetStatus(opts.To) {
		return domain.Asset{}, domain.AssetMovement{}, fmt.Errorf("unknown asset status %q", opts.To)
	}
	a, err := e.Repo.GetAsset(ctx, opts.AssetID)
	if err != nil {
		return domain.Asset{}, domain.AssetMovement{}, err
	}
	if !state.IsValidAssetTransition(a.Status, opts.To) {
		return domain.Asset{}, domain.AssetMovement{}, fmt.Errorf("asset %s cannot go from %s to %s", a.ID, a.Status, opts.To)
	}

	tc := state.TransitionContext{
		AssetID: a.ID,
		From:    a.Status,
		To:      opts.To,
		TripID:  opts.TripID,
		HubID:   opts.HubID,
		VenueID: opts.VenueID,
		Note:    opts.Note,
	}
	// Where the request omits ids the asset already carries, reuse them so
	// the departure side of the movement row stays named.
	if tc.TripID == "" && a.CurrentTripID != nil {
		tc.TripID = *a.CurrentTripID
	}
	if tc.HubID == "" && a.CurrentHubID != nil {
		tc.HubID = *a.CurrentHubID
	}
	if tc.VenueID == "" && a.CurrentVenueID != nil {
		tc.VenueID = *a.CurrentVenueID
	}
	if tc.TripID != "" {
		if _, err := e.Repo.GetTrip(ctx, tc.TripID); err != nil {
			return domain.Asset{}, domain.AssetMovement{}, fmt.Errorf("trip %s: %w", tc.TripID, err)
		}
	}
	if tc.HubID != "" {
		hub, err := e.Repo.GetHub(ctx, tc.HubID)
		if err != nil {
			return domain.Asset{}, domain.AssetMovement{}, fmt.Errorf("hub %s: %w", tc.HubID, err)
		}
		tc.HubName = hub.Name
	}
	if tc.VenueID != "" {
		venue, err := e.Repo.GetVenue(ctx, tc.VenueID)
		if err != nil {
			return domain.Asset{}, domain.AssetMovement{}, fmt.Errorf("venue %s: %w", tc.VenueID, err)
		}
		tc.VenueName = venue.Name
	}

	now := e.now()
	update := state.DeriveAssetUpdate(tc, now)
	rec := state.DeriveMovement(tc, now)
	movement := domain.AssetMovement{
		ID:               newID(),
		AssetID:          rec.AssetID,
		FromLocationType: rec.FromLocationType,
		FromLocationID:   rec.FromLocationID,
		FromLocationName: rec.FromLocationName,
		ToLocationType:   rec.ToLocationType,
		ToLocationID:     rec.ToLocationID,
		ToLocationName:   rec.ToLocationName,
		TripID:           rec.TripID,
		MovedAt:          rec.MovedAt,
		Notes:            rec.Notes,
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Asset{}, domain.AssetMovement{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.ApplyAssetUpdate(ctx, tx, a.ID, update); err != nil {
		return domain.Asset{}, domain.AssetMovement{}, err
	}
	if err := e.Repo.InsertMovement(ctx, tx, movement); err != nil {
		return domain.Asset{}, domain.AssetMovement{}, fmt.Errorf("record movement: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "asset.moved", a.SeasonID, "asset", a.ID, opts.ActorID,
		events.EventPayload{"from": a.Status, "to": opts.To, "trip_id": tc.TripID}); err != nil {
		return domain.Asset{}, domain.AssetMovement{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Asset{}, domain.AssetMovement{}, err
	}

	a.Status = update.Status
	a.CurrentTripID = update.CurrentTripID
	a.CurrentHubID = update.CurrentHubID
	a.CurrentVenueID = update.CurrentVenueID
	a.UpdatedAt = update.UpdatedAt
	return a, movement, nil
}

// AssetMovements returns an asset's movement history, newest first.
func (e Engine) AssetMovements(ctx context.Context, assetID string, limit int) ([]domain.AssetMovement, error) {
	if _, err := e.Repo.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return e.Repo.ListMovements(ctx, assetID, limit)
}
