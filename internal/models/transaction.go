package models

// Supported transaction types
const (
	TransactionTypeExpense = "GASTO"
	TransactionTypeIncome  = "INGRESO"
)

// TransactionDateLayout is the dd/MM/yyyy layout transaction dates are stored in.
const TransactionDateLayout = "02/01/2006"

// TransactionDB represents a transaction row in the database
type TransactionDB struct {
	TransactionID string  `json:"id" db:"id"`                 // Caller-supplied identifier, unique across all users
	UserID        string  `json:"user_id" db:"user_id"`       // Owner of the transaction
	Type          string  `json:"type" db:"type"`             // GASTO or INGRESO
	Amount        float64 `json:"amount" db:"amount"`         // Monetary value
	Category      string  `json:"category" db:"category"`     // Free-text classification
	Note          string  `json:"note" db:"note"`             // Free-text note, empty by default
	Date          string  `json:"date" db:"date"`             // Calendar date as dd/MM/yyyy
	CreatedAt     int64   `json:"created_at" db:"created_at"` // Creation time, epoch milliseconds
	UpdatedAt     int64   `json:"updated_at" db:"updated_at"` // Last update time, epoch milliseconds
}
