package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/aleex825/budgetwise-backend/internal/models"
)

// TransactionReadRepository handles transaction read operations
type TransactionReadRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewTransactionReadRepository(db *sqlx.DB, txGetter TxGetter) *TransactionReadRepository {
	return &TransactionReadRepository{db: db, txGetter: txGetter}
}

// GetByUserID returns all transactions owned by the user.
func (r *TransactionReadRepository) GetByUserID(ctx context.Context, userID string) ([]models.TransactionDB, error) {
	const query = `
		SELECT id, user_id, type, amount, category, note, date, created_at, updated_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at, id
	`
	executor := getExecutor(ctx, r.db, r.txGetter)

	txs := []models.TransactionDB{}
	err := sqlx.SelectContext(ctx, executor, &txs, executor.Rebind(query), userID)

	logQuery(ctx, query, []any{userID}, len(txs), err)

	if err != nil {
		return nil, err
	}
	return txs, nil
}

// GetByID returns the transaction matching both id and owner, or nil if there is none.
func (r *TransactionReadRepository) GetByID(ctx context.Context, userID, transactionID string) (*models.TransactionDB, error) {
	const query = `
		SELECT id, user_id, type, amount, category, note, date, created_at, updated_at
		FROM transactions
		WHERE id = ? AND user_id = ?
	`
	executor := getExecutor(ctx, r.db, r.txGetter)

	var tx models.TransactionDB
	err := sqlx.GetContext(ctx, executor, &tx, executor.Rebind(query), transactionID, userID)

	logQuery(ctx, query, []any{transactionID, userID}, tx.TransactionID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// TransactionWriteRepository handles transaction write operations
type TransactionWriteRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewTransactionWriteRepository(db *sqlx.DB, txGetter TxGetter) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db, txGetter: txGetter}
}

// Insert stores a new transaction. Returns ErrDuplicateKey if the id is already used by any user.
func (r *TransactionWriteRepository) Insert(ctx context.Context, tx models.TransactionDB) error {
	const query = `
		INSERT INTO transactions (id, user_id, type, amount, category, note, date, created_at, updated_at)
		VALUES (:id, :user_id, :type, :amount, :category, :note, :date, :created_at, :updated_at)
	`
	executor := getExecutor(ctx, r.db, r.txGetter)

	_, err := sqlx.NamedExecContext(ctx, executor, query, tx)

	logQuery(ctx, query, []any{tx}, nil, err)

	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}

// Update overwrites the mutable fields of the transaction matching id and owner.
// created_at is never touched. Reports whether a row was updated.
func (r *TransactionWriteRepository) Update(ctx context.Context, tx models.TransactionDB) (bool, error) {
	const query = `
		UPDATE transactions
		SET type = :type, amount = :amount, category = :category, note = :note,
		    date = :date, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id
	`
	executor := getExecutor(ctx, r.db, r.txGetter)

	res, err := sqlx.NamedExecContext(ctx, executor, query, tx)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logQuery(ctx, query, []any{tx}, rowsAffected, err)

	return rowsAffected > 0, err
}

// Delete removes the transaction matching id and owner. Reports whether a row was deleted.
func (r *TransactionWriteRepository) Delete(ctx context.Context, userID, transactionID string) (bool, error) {
	const query = `
		DELETE FROM transactions
		WHERE id = ? AND user_id = ?
	`
	executor := getExecutor(ctx, r.db, r.txGetter)

	res, err := executor.ExecContext(ctx, executor.Rebind(query), transactionID, userID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logQuery(ctx, query, []any{transactionID, userID}, rowsAffected, err)

	return rowsAffected > 0, err
}
