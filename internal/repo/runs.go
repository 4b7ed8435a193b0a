package repo

import (
	"context"
	"database/sql"

	"tourdeck/internal/domain"
)

const runColumns = `id,season_year,week_number,status,COALESCE(triggered_by,''),created_at,completed_at`

func scanRun(scan func(dest ...any) error) (domain.OptimizerRun, error) {
	var run domain.OptimizerRun
	var completed sql.NullString
	err := scan(&run.ID, &run.SeasonYear, &run.WeekNumber, &run.Status, &run.TriggeredBy, &run.CreatedAt, &completed)
	if err == sql.ErrNoRows {
		return run, ErrNotFound
	}
	if completed.Valid {
		run.CompletedAt = &completed.String
	}
	return run, err
}

// ActiveRunTx looks up the pending or running run for a week inside the
// caller's transaction so the check and the subsequent insert are atomic.
func (r Repo) ActiveRunTx(ctx context.Context, tx *sql.Tx, seasonYear, weekNumber int) (domain.OptimizerRun, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM optimizer_runs WHERE season_year=? AND week_number=? AND status IN ('pending','running') LIMIT 1`,
		seasonYear, weekNumber)
	return scanRun(row.Scan)
}

// LatestCompletedRunTx returns the most recently completed run for a week.
func (r Repo) LatestCompletedRunTx(ctx context.Context, tx *sql.Tx, seasonYear, weekNumber int) (domain.OptimizerRun, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM optimizer_runs WHERE season_year=? AND week_number=? AND status='completed' AND completed_at IS NOT NULL
		 ORDER BY completed_at DESC LIMIT 1`,
		seasonYear, weekNumber)
	return scanRun(row.Scan)
}

func (r Repo) InsertRun(ctx context.Context, tx *sql.Tx, run domain.OptimizerRun) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO optimizer_runs(id,season_year,week_number,status,triggered_by,created_at,completed_at) VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.SeasonYear, run.WeekNumber, run.Status, nullable(run.TriggeredBy), run.CreatedAt, nullableStringPtr(run.CompletedAt))
	return err
}

func (r Repo) GetRun(ctx context.Context, id string) (domain.OptimizerRun, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM optimizer_runs WHERE id=?`, id)
	return scanRun(row.Scan)
}

// SetRunStatus moves a run to a terminal or running status. completedAt may
// be empty for non-terminal statuses.
func (r Repo) SetRunStatus(ctx context.Context, id, status, completedAt string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE optimizer_runs SET status=?, completed_at=? WHERE id=?`,
		status, nullable(completedAt), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListRuns(ctx context.Context, seasonYear, weekNumber int) ([]domain.OptimizerRun, error) {
	query := `SELECT ` + runColumns + ` FROM optimizer_runs WHERE season_year=?`
	args := []any{seasonYear}
	if weekNumber > 0 {
		query += ` AND week_number=?`
		args = append(args, weekNumber)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.OptimizerRun
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, run)
	}
	return res, rows.Err()
}
