package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/aleex825/budgetwise-backend/internal/logger"
)

// schema is valid for both SQLite and Postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		CONSTRAINT uq_users_username UNIQUE (username)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		category TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_transactions_user_id ON transactions (user_id)`,
}

// Migrate creates the users and transactions tables if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	logger.Log.Info("database schema ensured")
	return nil
}
