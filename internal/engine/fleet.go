package engine

import (
	"context"
	"fmt"
	"time"

	"tourdeck/internal/domain"
)

// AddVehicle registers a vehicle in a season's fleet.
func (e Engine) AddVehicle(ctx context.Context, seasonID, id, name string, capacity int) (domain.Vehicle, error) {
	if name == "" {
		return domain.Vehicle{}, fmt.Errorf("name required")
	}
	season, err := e.Repo.GetSeason(ctx, seasonID)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("season %s: %w", seasonID, err)
	}
	v := domain.Vehicle{
		ID:        id,
		SeasonID:  season.ID,
		Name:      name,
		Capacity:  capacity,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if v.ID == "" {
		v.ID = newID()
	}
	if err := e.Repo.InsertVehicle(ctx, v); err != nil {
		return domain.Vehicle{}, fmt.Errorf("insert vehicle: %w", err)
	}
	return v, nil
}

// AddHub registers a hub. Hubs are shared across seasons.
func (e Engine) AddHub(ctx context.Context, id, name string) (domain.Hub, error) {
	if id == "" || name == "" {
		return domain.Hub{}, fmt.Errorf("id and name required")
	}
	h := domain.Hub{ID: id, Name: name}
	if err := e.Repo.InsertHub(ctx, h); err != nil {
		return domain.Hub{}, fmt.Errorf("insert hub: %w", err)
	}
	return h, nil
}

// AddVenue registers a venue. Venues are shared across seasons.
func (e Engine) AddVenue(ctx context.Context, id, name, city string) (domain.Venue, error) {
	if id == "" || name == "" {
		return domain.Venue{}, fmt.Errorf("id and name required")
	}
	v := domain.Venue{ID: id, Name: name, City: city}
	if err := e.Repo.InsertVenue(ctx, v); err != nil {
		return domain.Venue{}, fmt.Errorf("insert venue: %w", err)
	}
	return v, nil
}
