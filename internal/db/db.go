package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"race-simulator/internal/route"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// FetchRoute loads one route's vertices, elevation profile, time-zone
// profile and lap size. Points come back ordered by seq, so the three
// profile slices are index-aligned with the path by construction.
func FetchRoute(ctx context.Context, db *sql.DB, routeID string) (route.Data, error) {
	var data route.Data

	q := `SELECT num_unique_coords FROM routes WHERE route_id = $1`
	if err := db.QueryRowContext(ctx, q, routeID).Scan(&data.NumUniqueCoords); err != nil {
		if err == sql.ErrNoRows {
			return route.Data{}, fmt.Errorf("route %q not found", routeID)
		}
		return route.Data{}, fmt.Errorf("query route: %w", err)
	}

	q = `SELECT lat, lon, COALESCE(elevation_m, 0), COALESCE(tz_offset_s, 0)
	     FROM route_points WHERE route_id = $1 ORDER BY seq`
	rows, err := db.QueryContext(ctx, q, routeID)
	if err != nil {
		return route.Data{}, fmt.Errorf("query route points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c route.Coordinate
		var elev, tz float64
		if err := rows.Scan(&c.Lat, &c.Lon, &elev, &tz); err != nil {
			return route.Data{}, err
		}
		data.Path = append(data.Path, c)
		data.Elevations = append(data.Elevations, elev)
		data.TimeZones = append(data.TimeZones, tz)
	}
	if err := rows.Err(); err != nil {
		return route.Data{}, err
	}
	return data, nil
}

// ListRouteIDs returns all known route IDs, used for a helpful startup
// error when the configured route does not exist.
func ListRouteIDs(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT route_id FROM routes ORDER BY route_id`)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
