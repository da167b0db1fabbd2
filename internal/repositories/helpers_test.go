package repositories

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aleex825/budgetwise-backend/internal/database"
)

// setupSQLite opens a migrated SQLite database in a temp dir.
func setupSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, "sqlite:///"+filepath.Join(t.TempDir(), "test.db"), 0, 0)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))

	t.Cleanup(func() { db.Close() })
	return db
}

// setupPostgres starts a Postgres container and returns a migrated connection.
func setupPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	url := fmt.Sprintf("postgresql://postgres:secret@%s:%s/testdb?sslmode=disable", host, port.Port())

	var db *sqlx.DB
	for i := 0; i < 10; i++ {
		db, err = database.Open(ctx, url, 4, 2)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))

	t.Cleanup(func() { db.Close() })
	return db
}

// storages runs fn against every backend the service supports.
func storages(t *testing.T, fn func(t *testing.T, db *sqlx.DB)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, setupSQLite(t)) })
	t.Run("postgres", func(t *testing.T) { fn(t, setupPostgres(t)) })
}
