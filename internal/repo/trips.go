package repo

import (
	"context"
	"database/sql"

	"tourdeck/internal/domain"
)

const tripColumns = `id,season_id,season_year,week_number,status,vehicle_id,COALESCE(notes,''),created_at,updated_at`

func scanTrip(scan func(dest ...any) error) (domain.Trip, error) {
	var t domain.Trip
	var vehicle sql.NullString
	err := scan(&t.ID, &t.SeasonID, &t.SeasonYear, &t.WeekNumber, &t.Status, &vehicle, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if vehicle.Valid {
		t.VehicleID = &vehicle.String
	}
	return t, err
}

func (r Repo) InsertTrip(ctx context.Context, tx *sql.Tx, t domain.Trip) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO trips(id,season_id,season_year,week_number,status,vehicle_id,notes,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		t.ID, t.SeasonID, t.SeasonYear, t.WeekNumber, t.Status, nullableStringPtr(t.VehicleID), nullable(t.Notes), t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) GetTrip(ctx context.Context, id string) (domain.Trip, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=?`, id)
	return scanTrip(row.Scan)
}

// TripsForWeek returns all trips for a (year, week) key, cancelled included.
func (r Repo) TripsForWeek(ctx context.Context, seasonYear, weekNumber int) ([]domain.Trip, error) {
	return r.queryTrips(ctx, `SELECT `+tripColumns+` FROM trips WHERE season_year=? AND week_number=? ORDER BY created_at, id`, seasonYear, weekNumber)
}

// ActiveTripsForWeek returns the week's trips excluding cancelled ones.
func (r Repo) ActiveTripsForWeek(ctx context.Context, seasonYear, weekNumber int) ([]domain.Trip, error) {
	return r.queryTrips(ctx, `SELECT `+tripColumns+` FROM trips WHERE season_year=? AND week_number=? AND status != 'cancelled' ORDER BY created_at, id`, seasonYear, weekNumber)
}

func (r Repo) ListTrips(ctx context.Context, seasonID string) ([]domain.Trip, error) {
	return r.queryTrips(ctx, `SELECT `+tripColumns+` FROM trips WHERE season_id=? ORDER BY week_number, created_at`, seasonID)
}

func (r Repo) queryTrips(ctx context.Context, query string, args ...any) ([]domain.Trip, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) UpdateTripStatus(ctx context.Context, tx *sql.Tx, id, status, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE trips SET status=?, updated_at=? WHERE id=?`, status, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LockApprovableTrips moves every draft/recommended trip of the week to
// confirmed in one conditional UPDATE and reports how many rows changed.
func (r Repo) LockApprovableTrips(ctx context.Context, tx *sql.Tx, seasonYear, weekNumber int, updatedAt string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE trips SET status='confirmed', updated_at=? WHERE season_year=? AND week_number=? AND status IN ('draft','recommended')`,
		updatedAt, seasonYear, weekNumber)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r Repo) SetTripVehicle(ctx context.Context, tx *sql.Tx, tripID string, vehicleID *string, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE trips SET vehicle_id=?, updated_at=? WHERE id=?`, nullableStringPtr(vehicleID), updatedAt, tripID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) AddCrew(ctx context.Context, tx *sql.Tx, c domain.CrewAssignment) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO trip_crew(trip_id,member_id,member_name,role,created_at) VALUES (?,?,?,?,?)`,
		c.TripID, c.MemberID, nullable(c.MemberName), nullable(c.Role), c.CreatedAt)
	return err
}

func (r Repo) RemoveCrew(ctx context.Context, tx *sql.Tx, tripID, memberID string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM trip_crew WHERE trip_id=? AND member_id=?`, tripID, memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListCrew(ctx context.Context, tripID string) ([]domain.CrewAssignment, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT trip_id,member_id,COALESCE(member_name,''),COALESCE(role,''),created_at FROM trip_crew WHERE trip_id=? ORDER BY created_at`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CrewAssignment
	for rows.Next() {
		var c domain.CrewAssignment
		if err := rows.Scan(&c.TripID, &c.MemberID, &c.MemberName, &c.Role, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// CrewCountsForWeek returns trip id -> assigned crew count for a week.
func (r Repo) CrewCountsForWeek(ctx context.Context, seasonYear, weekNumber int) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT t.id, COUNT(c.member_id) FROM trips t LEFT JOIN trip_crew c ON c.trip_id=t.id
		 WHERE t.season_year=? AND t.week_number=? GROUP BY t.id`, seasonYear, weekNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (r Repo) InsertStop(ctx context.Context, tx *sql.Tx, s domain.TripStop) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO trip_stops(id,trip_id,venue_id,position,created_at) VALUES (?,?,?,?,?)`,
		s.ID, s.TripID, s.VenueID, s.Position, s.CreatedAt)
	return err
}

func (r Repo) ListStops(ctx context.Context, tripID string) ([]domain.TripStop, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,trip_id,venue_id,position,created_at FROM trip_stops WHERE trip_id=? ORDER BY position`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.TripStop
	for rows.Next() {
		var s domain.TripStop
		if err := rows.Scan(&s.ID, &s.TripID, &s.VenueID, &s.Position, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
