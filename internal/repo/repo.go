package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tourdeck/internal/config"
	"tourdeck/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertSeason(ctx context.Context, tx *sql.Tx, s domain.Season) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO seasons(id,year,label,status,created_at) VALUES (?,?,?,?,?)`,
		s.ID, s.Year, nullable(s.Label), s.Status, s.CreatedAt)
	return err
}

func (r Repo) GetSeason(ctx context.Context, id string) (domain.Season, error) {
	var s domain.Season
	err := r.DB.QueryRowContext(ctx, `SELECT id,year,COALESCE(label,''),status,created_at FROM seasons WHERE id=?`, id).
		Scan(&s.ID, &s.Year, &s.Label, &s.Status, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

func (r Repo) SingleSeason(ctx context.Context) (domain.Season, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,year,COALESCE(label,''),status,created_at FROM seasons`)
	if err != nil {
		return domain.Season{}, err
	}
	defer rows.Close()
	var seasons []domain.Season
	for rows.Next() {
		var s domain.Season
		if err := rows.Scan(&s.ID, &s.Year, &s.Label, &s.Status, &s.CreatedAt); err != nil {
			return domain.Season{}, err
		}
		seasons = append(seasons, s)
	}
	if len(seasons) == 0 {
		return domain.Season{}, ErrNotFound
	}
	if len(seasons) > 1 {
		return domain.Season{}, fmt.Errorf("multiple seasons exist; specify --season")
	}
	return seasons[0], nil
}

func (r Repo) ListSeasons(ctx context.Context) ([]domain.Season, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,year,COALESCE(label,''),status,created_at FROM seasons ORDER BY year DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Season
	for rows.Next() {
		var s domain.Season
		if err := rows.Scan(&s.ID, &s.Year, &s.Label, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) UpsertSeasonConfig(ctx context.Context, seasonID string, cfg *config.Config) error {
	return upsertSeasonConfig(ctx, r.DB, nil, seasonID, cfg)
}

func (r Repo) UpsertSeasonConfigTx(ctx context.Context, tx *sql.Tx, seasonID string, cfg *config.Config) error {
	return upsertSeasonConfig(ctx, nil, tx, seasonID, cfg)
}

func upsertSeasonConfig(ctx context.Context, db *sql.DB, tx *sql.Tx, seasonID string, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config nil")
	}
	cfg.Season.ID = seasonID
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	exec := func(query string, args ...any) (sql.Result, error) {
		if tx != nil {
			return tx.ExecContext(ctx, query, args...)
		}
		return db.ExecContext(ctx, query, args...)
	}
	_, err = exec(`INSERT INTO season_configs(season_id,config_json,created_at,updated_at) VALUES (?,?,?,?)
ON CONFLICT(season_id) DO UPDATE SET config_json=excluded.config_json, updated_at=excluded.updated_at`, seasonID, string(payload), now, now)
	return err
}

func (r Repo) GetSeasonConfig(ctx context.Context, seasonID string) (*config.Config, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT config_json FROM season_configs WHERE season_id=?`, seasonID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, err
	}
	if cfg.Season.ID == "" {
		cfg.Season.ID = seasonID
	}
	return &cfg, cfg.Validate()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
