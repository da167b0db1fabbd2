package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aleex825/budgetwise-backend/internal/logger"
	"github.com/aleex825/budgetwise-backend/internal/models"
	"github.com/aleex825/budgetwise-backend/internal/services"
)

// TransactionLister defines the interface used to list a user's transactions.
type TransactionLister interface {
	List(ctx context.Context, userID string) ([]models.TransactionDB, error)
}

// TransactionUpserter defines the interface used to create or overwrite a transaction.
type TransactionUpserter interface {
	Upsert(ctx context.Context, userID string, tx models.TransactionDB) (*models.TransactionDB, error)
}

// TransactionDeleter defines the interface used to delete a transaction.
type TransactionDeleter interface {
	Delete(ctx context.Context, userID, transactionID string) error
}

// TransactionRequest represents the JSON body for creating or updating a transaction
// swagger:model TransactionRequest
type TransactionRequest struct {
	// Caller-chosen transaction ID, unique across all users
	// required: true
	// default: tx-001
	ID string `json:"id"`

	// GASTO (expense) or INGRESO (income)
	// required: true
	// default: GASTO
	Type string `json:"type"`

	// Amount
	// required: true
	// default: 12.5
	Amount *float64 `json:"amount"`

	// Category, blank is rejected
	// required: true
	// default: food
	Category string `json:"category"`

	// Optional free-form note, stored as "" when omitted
	// default:
	Note string `json:"note"`

	// Date as dd/MM/yyyy
	// required: true
	// default: 01/01/2024
	Date string `json:"date"`
}

// TransactionResponse represents a stored transaction
// swagger:model TransactionResponse
type TransactionResponse struct {
	// Transaction ID
	// default: tx-001
	ID string `json:"id"`

	// Owning user ID
	// default: 5f0c6e1e-3b1a-4d8e-9a57-2f0e1c9d4b11
	UserID string `json:"user_id"`

	// GASTO or INGRESO
	// default: GASTO
	Type string `json:"type"`

	// Amount
	// default: 12.5
	Amount float64 `json:"amount"`

	// Category
	// default: food
	Category string `json:"category"`

	// Note
	// default:
	Note string `json:"note"`

	// Date as dd/MM/yyyy
	// default: 01/01/2024
	Date string `json:"date"`

	// Creation time, epoch milliseconds
	// default: 1704067200000
	CreatedAt int64 `json:"created_at"`

	// Last update time, epoch milliseconds
	// default: 1704067200000
	UpdatedAt int64 `json:"updated_at"`
}

func newTransactionResponse(tx models.TransactionDB) TransactionResponse {
	return TransactionResponse{
		ID:        tx.TransactionID,
		UserID:    tx.UserID,
		Type:      tx.Type,
		Amount:    tx.Amount,
		Category:  tx.Category,
		Note:      tx.Note,
		Date:      tx.Date,
		CreatedAt: tx.CreatedAt,
		UpdatedAt: tx.UpdatedAt,
	}
}

// NewListTransactionsHandler returns an HTTP handler listing a user's transactions.
// @Summary List transactions
// @Description Returns every transaction of the user. Clients are expected to sort, e.g. by date.
// @Tags transactions
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {array} handlers.TransactionResponse "Transactions"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /users/{user_id}/transactions [get]
func NewListTransactionsHandler(svc TransactionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")

		txs, err := svc.List(r.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, err.Error())
			default:
				logger.FromContext(r.Context()).Errorw("internal server error", "userID", userID, "err", err)
				writeError(w, http.StatusInternalServerError, internalServerError)
			}
			return
		}

		resp := make([]TransactionResponse, 0, len(txs))
		for _, tx := range txs {
			resp = append(resp, newTransactionResponse(tx))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// NewUpsertTransactionHandler returns an HTTP handler that creates or overwrites a transaction.
// @Summary Create or update transaction
// @Description Inserts the transaction, or overwrites type, amount, category, note and date when the user already owns one with that ID.
// @Tags transactions
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param request body handlers.TransactionRequest true "Transaction"
// @Success 200 {object} handlers.TransactionResponse "Stored transaction"
// @Failure 400 {object} handlers.ErrorResponse "Invalid transaction"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 409 {object} handlers.ErrorResponse "Transaction ID used by another user"
// @Router /users/{user_id}/transactions [post]
func NewUpsertTransactionHandler(svc TransactionUpserter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")

		var req TransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Amount == nil {
			writeError(w, http.StatusBadRequest, "invalid transaction: amount is required")
			return
		}

		tx, err := svc.Upsert(r.Context(), userID, models.TransactionDB{
			TransactionID: req.ID,
			Type:          req.Type,
			Amount:        *req.Amount,
			Category:      req.Category,
			Note:          req.Note,
			Date:          req.Date,
		})
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, err.Error())
			case errors.Is(err, services.ErrInvalidTransaction):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, services.ErrTransactionIDTaken):
				writeError(w, http.StatusConflict, err.Error())
			default:
				logger.FromContext(r.Context()).Errorw("internal server error", "userID", userID, "err", err)
				writeError(w, http.StatusInternalServerError, internalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, newTransactionResponse(*tx))
	}
}

// NewDeleteTransactionHandler returns an HTTP handler that deletes a user's transaction.
// @Summary Delete transaction
// @Tags transactions
// @Produce json
// @Param user_id path string true "User ID"
// @Param tx_id path string true "Transaction ID"
// @Success 200 {object} handlers.OKResponse "Transaction deleted"
// @Failure 404 {object} handlers.ErrorResponse "User or transaction not found"
// @Router /users/{user_id}/transactions/{tx_id} [delete]
func NewDeleteTransactionHandler(svc TransactionDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")
		txID := chi.URLParam(r, "tx_id")

		if err := svc.Delete(r.Context(), userID, txID); err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound),
				errors.Is(err, services.ErrTransactionNotFound):
				writeError(w, http.StatusNotFound, err.Error())
			default:
				logger.FromContext(r.Context()).Errorw("internal server error", "userID", userID, "transactionID", txID, "err", err)
				writeError(w, http.StatusInternalServerError, internalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, OKResponse{OK: true})
	}
}
