package repo

import (
	"context"
	"database/sql"

	"tourdeck/internal/domain"
)

func (r Repo) InsertHub(ctx context.Context, h domain.Hub) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO hubs(id,name) VALUES (?,?)`, h.ID, h.Name)
	return err
}

func (r Repo) GetHub(ctx context.Context, id string) (domain.Hub, error) {
	var h domain.Hub
	err := r.DB.QueryRowContext(ctx, `SELECT id,name FROM hubs WHERE id=?`, id).Scan(&h.ID, &h.Name)
	if err == sql.ErrNoRows {
		return h, ErrNotFound
	}
	return h, err
}

func (r Repo) ListHubs(ctx context.Context) ([]domain.Hub, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name FROM hubs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Hub
	for rows.Next() {
		var h domain.Hub
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func (r Repo) InsertVenue(ctx context.Context, v domain.Venue) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO venues(id,name,city) VALUES (?,?,?)`, v.ID, v.Name, nullable(v.City))
	return err
}

func (r Repo) GetVenue(ctx context.Context, id string) (domain.Venue, error) {
	var v domain.Venue
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,COALESCE(city,'') FROM venues WHERE id=?`, id).Scan(&v.ID, &v.Name, &v.City)
	if err == sql.ErrNoRows {
		return v, ErrNotFound
	}
	return v, err
}

func (r Repo) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,COALESCE(city,'') FROM venues ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Venue
	for rows.Next() {
		var v domain.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.City); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

func (r Repo) InsertVehicle(ctx context.Context, v domain.Vehicle) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO vehicles(id,season_id,name,capacity,created_at) VALUES (?,?,?,?,?)`,
		v.ID, v.SeasonID, v.Name, v.Capacity, v.CreatedAt)
	return err
}

func (r Repo) GetVehicle(ctx context.Context, id string) (domain.Vehicle, error) {
	var v domain.Vehicle
	var capacity sql.NullInt64
	err := r.DB.QueryRowContext(ctx, `SELECT id,season_id,name,capacity,created_at FROM vehicles WHERE id=?`, id).
		Scan(&v.ID, &v.SeasonID, &v.Name, &capacity, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return v, ErrNotFound
	}
	if capacity.Valid {
		v.Capacity = int(capacity.Int64)
	}
	return v, err
}

func (r Repo) ListVehicles(ctx context.Context, seasonID string) ([]domain.Vehicle, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,season_id,name,capacity,created_at FROM vehicles WHERE season_id=? ORDER BY name`, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		var capacity sql.NullInt64
		if err := rows.Scan(&v.ID, &v.SeasonID, &v.Name, &capacity, &v.CreatedAt); err != nil {
			return nil, err
		}
		if capacity.Valid {
			v.Capacity = int(capacity.Int64)
		}
		res = append(res, v)
	}
	return res, rows.Err()
}
