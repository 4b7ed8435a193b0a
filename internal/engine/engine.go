package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tourdeck/internal/config"
	"tourdeck/internal/domain"
	"tourdeck/internal/events"
	"tourdeck/internal/notify"
	"tourdeck/internal/optimizer"
	"tourdeck/internal/repo"
)

type Engine struct {
	DB        *sql.DB
	Repo      repo.Repo
	Events    events.Writer
	Config    *config.Config
	Optimizer *optimizer.Client
	Notifier  notify.Notifier
	Now       func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	e := Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
	if cfg != nil {
		e.Optimizer = optimizer.New(cfg.Optimizer.URL)
		e.Notifier = notify.NewWebhook(cfg.Notify.StaffURL, cfg.Notify.OpsURL,
			time.Duration(cfg.Notify.TimeoutSeconds)*time.Second)
	}
	return e
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// InitSeason creates a season with migrations already run.
func (e Engine) InitSeason(ctx context.Context, seasonID string, year int, label, actorID string) (domain.Season, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Season{}, err
	}
	defer tx.Rollback()

	s := domain.Season{
		ID:        seasonID,
		Year:      year,
		Label:     label,
		Status:    "active",
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertSeason(ctx, tx, s); err != nil {
		return domain.Season{}, fmt.Errorf("insert season: %w", err)
	}
	if err := e.Repo.UpsertSeasonConfigTx(ctx, tx, s.ID, config.Default(s.ID, s.Year)); err != nil {
		return domain.Season{}, fmt.Errorf("insert season config: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "season.init", s.ID, "season", s.ID, actorID, events.EventPayload{"year": s.Year}); err != nil {
		return domain.Season{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Season{}, err
	}
	return s, nil
}

func (e Engine) seasonWeeks() int {
	if e.Config != nil && e.Config.Season.Weeks > 0 {
		return e.Config.Season.Weeks
	}
	return 18
}

func (e Engine) checkWeek(weekNumber int) error {
	if weekNumber < 1 || weekNumber > e.seasonWeeks() {
		return fmt.Errorf("invalid week_number %d: must be 1..%d", weekNumber, e.seasonWeeks())
	}
	return nil
}

func newID() string {
	return uuid.New().String()
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound)
}
