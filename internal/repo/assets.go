package repo

import (
	"context"
	"database/sql"

	"tourdeck/internal/domain"
	"tourdeck/internal/state"
)

const assetColumns = `id,season_id,name,COALESCE(kind,''),status,current_trip_id,current_hub_id,current_venue_id,created_at,updated_at`

func scanAsset(scan func(dest ...any) error) (domain.Asset, error) {
	var a domain.Asset
	var trip, hub, venue sql.NullString
	err := scan(&a.ID, &a.SeasonID, &a.Name, &a.Kind, &a.Status, &trip, &hub, &venue, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if trip.Valid {
		a.CurrentTripID = &trip.String
	}
	if hub.Valid {
		a.CurrentHubID = &hub.String
	}
	if venue.Valid {
		a.CurrentVenueID = &venue.String
	}
	return a, err
}

func (r Repo) InsertAsset(ctx context.Context, tx *sql.Tx, a domain.Asset) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO assets(id,season_id,name,kind,status,current_trip_id,current_hub_id,current_venue_id,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.SeasonID, a.Name, nullable(a.Kind), a.Status,
		nullableStringPtr(a.CurrentTripID), nullableStringPtr(a.CurrentHubID), nullableStringPtr(a.CurrentVenueID),
		a.CreatedAt, a.UpdatedAt)
	return err
}

func (r Repo) GetAsset(ctx context.Context, id string) (domain.Asset, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id=?`, id)
	return scanAsset(row.Scan)
}

func (r Repo) ListAssets(ctx context.Context, seasonID string) ([]domain.Asset, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE season_id=? ORDER BY name`, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// ApplyAssetUpdate writes the complete derived payload for one transition.
// All three location pointers are overwritten so the row can never hold
// more than one.
func (r Repo) ApplyAssetUpdate(ctx context.Context, tx *sql.Tx, assetID string, u state.AssetUpdate) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE assets SET status=?, current_trip_id=?, current_hub_id=?, current_venue_id=?, updated_at=? WHERE id=?`,
		u.Status, nullableStringPtr(u.CurrentTripID), nullableStringPtr(u.CurrentHubID), nullableStringPtr(u.CurrentVenueID), u.UpdatedAt, assetID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertMovement(ctx context.Context, tx *sql.Tx, m domain.AssetMovement) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO asset_movements(id,asset_id,from_location_type,from_location_id,from_location_name,to_location_type,to_location_id,to_location_name,trip_id,moved_at,notes)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		m.ID, m.AssetID,
		m.FromLocationType, nullableStringPtr(m.FromLocationID), nullable(m.FromLocationName),
		m.ToLocationType, nullableStringPtr(m.ToLocationID), nullable(m.ToLocationName),
		nullableStringPtr(m.TripID), m.MovedAt, nullable(m.Notes))
	return err
}

func (r Repo) ListMovements(ctx context.Context, assetID string, limit int) ([]domain.AssetMovement, error) {
	query := `SELECT id,asset_id,from_location_type,from_location_id,COALESCE(from_location_name,''),to_location_type,to_location_id,COALESCE(to_location_name,''),trip_id,moved_at,COALESCE(notes,'')
	 FROM asset_movements WHERE asset_id=? ORDER BY moved_at DESC, id DESC`
	args := []any{assetID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AssetMovement
	for rows.Next() {
		var m domain.AssetMovement
		var fromID, toID, tripID sql.NullString
		if err := rows.Scan(&m.ID, &m.AssetID, &m.FromLocationType, &fromID, &m.FromLocationName,
			&m.ToLocationType, &toID, &m.ToLocationName, &tripID, &m.MovedAt, &m.Notes); err != nil {
			return nil, err
		}
		if fromID.Valid {
			m.FromLocationID = &fromID.String
		}
		if toID.Valid {
			m.ToLocationID = &toID.String
		}
		if tripID.Valid {
			m.TripID = &tripID.String
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
