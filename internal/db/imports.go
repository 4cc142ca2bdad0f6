package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ResolveLatestRouteDB returns the db_name with the most recent
// imported_at from public.latest_successful_imports where db_name ILIKE
// '%event%'. Route data is imported per racing event into a fresh
// database; the simulator always wants the newest one.
func ResolveLatestRouteDB(ctx context.Context, meta *sql.DB, event string) (string, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return "", fmt.Errorf("event is required")
	}
	// Fully qualified to the public schema (assumes we are connected to the 'postgres' database)
	q := `
SELECT db_name
FROM public.latest_successful_imports
WHERE db_name ILIKE '%' || $1 || '%'
ORDER BY imported_at DESC
LIMIT 1`
	var dbName sql.NullString
	if err := meta.QueryRowContext(ctx, q, event).Scan(&dbName); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("no database found for event like %q", event)
		}
		return "", err
	}
	if !dbName.Valid || dbName.String == "" {
		return "", fmt.Errorf("empty db_name for event like %q", event)
	}
	return dbName.String, nil
}
