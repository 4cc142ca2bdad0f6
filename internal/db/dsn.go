package db

import (
	"fmt"
	"net/url"
	"strings"
)

// WithDBName returns a DSN identical to the input but pointed at the
// given database. Used to hop from the cluster's meta database to the
// resolved event database. Supports postgres:// and postgresql://
// schemes; a scheme-less DSN gets postgres:// prefixed.
func WithDBName(dsn, database string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("empty DSN")
	}
	// Prefix before parsing: url.Parse rejects scheme-less host:port
	// strings outright ("first path segment in URL cannot contain
	// colon"), so the fallback must happen first.
	if !strings.Contains(dsn, "://") {
		dsn = "postgres://" + dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(database, "/") {
		u.Path = "/" + database
	} else {
		u.Path = database
	}
	return u.String(), nil
}
