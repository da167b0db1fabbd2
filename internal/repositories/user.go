package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/aleex825/budgetwise-backend/internal/models"
)

const maskedPassword = "***"

// UserReadRepository handles user read operations
type UserReadRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewUserReadRepository(db *sqlx.DB, txGetter TxGetter) *UserReadRepository {
	return &UserReadRepository{db: db, txGetter: txGetter}
}

// GetByUsername returns the user with the given username, or nil if there is none.
func (r *UserReadRepository) GetByUsername(ctx context.Context, username string) (*models.UserDB, error) {
	const query = `
		SELECT id, username, password_hash
		FROM users
		WHERE username = ?
	`
	return r.get(ctx, query, username)
}

// GetByID returns the user with the given id, or nil if there is none.
func (r *UserReadRepository) GetByID(ctx context.Context, userID string) (*models.UserDB, error) {
	const query = `
		SELECT id, username, password_hash
		FROM users
		WHERE id = ?
	`
	return r.get(ctx, query, userID)
}

func (r *UserReadRepository) get(ctx context.Context, query string, arg string) (*models.UserDB, error) {
	executor := getExecutor(ctx, r.db, r.txGetter)

	var user models.UserDB
	err := sqlx.GetContext(ctx, executor, &user, executor.Rebind(query), arg)

	logQuery(ctx, query, []any{arg}, user.UserID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserWriteRepository handles user write operations
type UserWriteRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewUserWriteRepository(db *sqlx.DB, txGetter TxGetter) *UserWriteRepository {
	return &UserWriteRepository{db: db, txGetter: txGetter}
}

// Save inserts a new user. Returns ErrDuplicateKey if the id or username is taken.
func (r *UserWriteRepository) Save(ctx context.Context, user models.UserDB) error {
	const query = `
		INSERT INTO users (id, username, password_hash)
		VALUES (?, ?, ?)
	`
	executor := getExecutor(ctx, r.db, r.txGetter)

	_, err := executor.ExecContext(ctx, executor.Rebind(query), user.UserID, user.Username, user.PasswordHash)

	logQuery(ctx, query, []any{user.UserID, user.Username, maskedPassword}, nil, err)

	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}

// UpdatePassword replaces the stored password hash. Reports whether a row was updated.
func (r *UserWriteRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) (bool, error) {
	const query = `
		UPDATE users
		SET password_hash = ?
		WHERE id = ?
	`
	executor := getExecutor(ctx, r.db, r.txGetter)

	res, err := executor.ExecContext(ctx, executor.Rebind(query), passwordHash, userID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logQuery(ctx, query, []any{maskedPassword, userID}, rowsAffected, err)

	return rowsAffected > 0, err
}

// Delete removes a user and, through the foreign key, all of its transactions.
// Reports whether a row was deleted.
func (r *UserWriteRepository) Delete(ctx context.Context, userID string) (bool, error) {
	const query = `
		DELETE FROM users
		WHERE id = ?
	`
	executor := getExecutor(ctx, r.db, r.txGetter)

	res, err := executor.ExecContext(ctx, executor.Rebind(query), userID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logQuery(ctx, query, []any{userID}, rowsAffected, err)

	return rowsAffected > 0, err
}
