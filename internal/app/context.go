package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourdeck/internal/config"
	"tourdeck/internal/domain"
	"tourdeck/internal/repo"
)

// ResolveSeasonAndConfig picks the active season and ensures a season + config
// exist in the DB, seeding defaults if missing. It prefers the override, then
// the single season present. If the season does not exist, it is created on
// the fly.
func ResolveSeasonAndConfig(ctx context.Context, seasonOverride string, yearHint int, r repo.Repo) (string, *config.Config, error) {
	seasonID := seasonOverride
	if seasonID == "" {
		if s, err := r.SingleSeason(ctx); err == nil {
			seasonID = s.ID
		} else {
			return "", nil, fmt.Errorf("season not specified; use --season")
		}
	}
	if yearHint == 0 {
		yearHint = time.Now().UTC().Year()
	}
	seedCfg := config.Default(seasonID, yearHint)

	if _, err := r.GetSeason(ctx, seasonID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		if err := createSeason(ctx, r, seasonID, yearHint, seedCfg); err != nil {
			return "", nil, err
		}
	}
	cfg, err := r.GetSeasonConfig(ctx, seasonID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			if err := r.UpsertSeasonConfig(ctx, seasonID, seedCfg); err != nil {
				return "", nil, fmt.Errorf("seed season config: %w", err)
			}
			cfg = seedCfg
		} else {
			return "", nil, err
		}
	}
	cfg.Season.ID = seasonID
	return seasonID, cfg, nil
}

func createSeason(ctx context.Context, r repo.Repo, seasonID string, year int, seedCfg *config.Config) error {
	if seedCfg == nil {
		seedCfg = config.Default(seasonID, year)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	s := domain.Season{
		ID:        seasonID,
		Year:      year,
		Status:    "active",
		CreatedAt: now,
	}
	if err := r.InsertSeason(ctx, tx, s); err != nil {
		return fmt.Errorf("insert season: %w", err)
	}
	if err := r.UpsertSeasonConfigTx(ctx, tx, seasonID, seedCfg); err != nil {
		return fmt.Errorf("insert season config: %w", err)
	}
	return tx.Commit()
}
