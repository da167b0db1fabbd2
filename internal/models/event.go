package models

// Transaction event operations
const (
	EventOperationUpsert = "upsert"
	EventOperationDelete = "delete"
)

// TransactionEvent is published whenever a transaction is written or removed.
type TransactionEvent struct {
	EventID       string         `json:"event_id"`              // Unique identifier of the event
	Operation     string         `json:"operation"`             // upsert or delete
	UserID        string         `json:"user_id"`               // Owner of the transaction
	TransactionID string         `json:"transaction_id"`        // Affected transaction
	Timestamp     int64          `json:"timestamp"`             // Event time, epoch milliseconds
	Transaction   *TransactionDB `json:"transaction,omitempty"` // Resulting record, set for upserts
}
