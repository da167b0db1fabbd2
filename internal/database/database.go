package database

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aleex825/budgetwise-backend/internal/logger"
)

// DefaultURL is used when no connection string is configured.
const DefaultURL = "sqlite:///./budgetwise.db"

// Driver names registered by the imported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// ParseURL translates a connection URL into a database/sql driver name and DSN.
//
// SQLite URLs follow the sqlite:///relative.db and sqlite:////absolute.db
// convention. Postgres URLs are accepted with any postgres or postgresql scheme,
// including a "+driver" suffix, and are always served by pgx.
func ParseURL(rawURL string) (driverName, dsn string, err error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		rawURL = DefaultURL
	}

	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return "", "", fmt.Errorf("invalid database url %q: missing scheme", rawURL)
	}

	// postgresql+psycopg -> postgresql
	base, _, _ := strings.Cut(strings.ToLower(scheme), "+")

	switch base {
	case "sqlite":
		return DriverSQLite, sqliteDSN(rest), nil
	case "postgres", "postgresql":
		if rest == "" {
			return "", "", fmt.Errorf("invalid database url %q: missing host", rawURL)
		}
		return DriverPostgres, "postgres://" + rest, nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// sqliteDSN builds a go-sqlite3 DSN from the part of the URL after "sqlite://".
func sqliteDSN(rest string) string {
	path := strings.TrimPrefix(rest, "/")
	if path == "" || path == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}

// Open connects to the database described by rawURL and applies pool settings.
// SQLite is pinned to a single connection shared by all goroutines.
func Open(ctx context.Context, rawURL string, maxOpenConns, maxIdleConns int) (*sqlx.DB, error) {
	driverName, dsn, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driverName, err)
	}

	if driverName == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxIdleConns)
	}

	logger.Log.Infow("database connected", "driver", driverName)
	return db, nil
}
