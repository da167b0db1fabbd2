package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/aleex825/budgetwise-backend/internal/logger"
	"github.com/aleex825/budgetwise-backend/internal/models"
	"github.com/aleex825/budgetwise-backend/internal/repositories"
)

//go:generate mockgen -source=transaction.go -destination=mock_transaction.go -package=services

// UserGetter looks users up by id.
type UserGetter interface {
	GetByID(ctx context.Context, userID string) (*models.UserDB, error)
}

// TransactionReader defines read-only operations for transactions.
type TransactionReader interface {
	GetByUserID(ctx context.Context, userID string) ([]models.TransactionDB, error)
	GetByID(ctx context.Context, userID, transactionID string) (*models.TransactionDB, error)
}

// TransactionWriter defines write operations for transactions.
type TransactionWriter interface {
	Insert(ctx context.Context, tx models.TransactionDB) error
	Update(ctx context.Context, tx models.TransactionDB) (bool, error)
	Delete(ctx context.Context, userID, transactionID string) (bool, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DefaultEventPublishTimeout bounds a single event write to Kafka.
const DefaultEventPublishTimeout = 2 * time.Second

// AfterCommitFunc defers fn until the storage transaction carried by ctx has committed.
type AfterCommitFunc func(ctx context.Context, fn func())

// TransactionService handles per-user transaction operations and publishes change events.
type TransactionService struct {
	users          UserGetter
	readRepo       TransactionReader
	writeRepo      TransactionWriter
	kafkaWriter    KafkaWriter
	afterCommit    AfterCommitFunc
	publishTimeout time.Duration
	now            func() time.Time
}

// TransactionOption configures a TransactionService.
type TransactionOption func(*TransactionService)

// WithAfterCommit makes events wait for the request transaction to commit.
// Events of a rolled back transaction are never published.
func WithAfterCommit(afterCommit AfterCommitFunc) TransactionOption {
	return func(s *TransactionService) {
		s.afterCommit = afterCommit
	}
}

// WithEventPublishTimeout overrides DefaultEventPublishTimeout.
func WithEventPublishTimeout(timeout time.Duration) TransactionOption {
	return func(s *TransactionService) {
		s.publishTimeout = timeout
	}
}

// NewTransactionService creates a new TransactionService. kafkaWriter may be nil.
func NewTransactionService(
	users UserGetter,
	readRepo TransactionReader,
	writeRepo TransactionWriter,
	kafkaWriter KafkaWriter,
	opts ...TransactionOption,
) *TransactionService {
	s := &TransactionService{
		users:          users,
		readRepo:       readRepo,
		writeRepo:      writeRepo,
		kafkaWriter:    kafkaWriter,
		afterCommit:    func(_ context.Context, fn func()) { fn() },
		publishTimeout: DefaultEventPublishTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all transactions of the user.
func (s *TransactionService) List(ctx context.Context, userID string) ([]models.TransactionDB, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	txs, err := s.readRepo.GetByUserID(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to list transactions", "userID", userID, "error", err)
		return nil, err
	}
	return txs, nil
}

// Upsert creates the transaction or overwrites its mutable fields when the user already owns one with that id.
func (s *TransactionService) Upsert(ctx context.Context, userID string, in models.TransactionDB) (*models.TransactionDB, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	in, err := normalizeTransaction(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.readRepo.GetByID(ctx, userID, in.TransactionID)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to get transaction", "userID", userID, "transactionID", in.TransactionID, "error", err)
		return nil, err
	}

	now := s.now().UnixMilli()
	in.UserID = userID

	if existing != nil {
		result := *existing
		result.Type = in.Type
		result.Amount = in.Amount
		result.Category = in.Category
		result.Note = in.Note
		result.Date = in.Date
		result.UpdatedAt = now

		updated, err := s.writeRepo.Update(ctx, result)
		if err != nil {
			logger.FromContext(ctx).Errorw("failed to update transaction", "userID", userID, "transactionID", in.TransactionID, "error", err)
			return nil, err
		}
		if updated {
			s.publishEvent(ctx, models.EventOperationUpsert, userID, result.TransactionID, &result)
			return &result, nil
		}
		// Deleted between lookup and update: store it as a new row.
		logger.FromContext(ctx).Warnw("transaction vanished before update, inserting", "userID", userID, "transactionID", in.TransactionID)
	}

	result := in
	result.CreatedAt = now
	result.UpdatedAt = now

	if err := s.writeRepo.Insert(ctx, result); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			logger.FromContext(ctx).Warnw("transaction id owned by another user", "userID", userID, "transactionID", in.TransactionID)
			return nil, ErrTransactionIDTaken
		}
		logger.FromContext(ctx).Errorw("failed to insert transaction", "userID", userID, "transactionID", in.TransactionID, "error", err)
		return nil, err
	}

	s.publishEvent(ctx, models.EventOperationUpsert, userID, result.TransactionID, &result)

	return &result, nil
}

// Delete removes the user's transaction.
func (s *TransactionService) Delete(ctx context.Context, userID, transactionID string) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}

	deleted, err := s.writeRepo.Delete(ctx, userID, transactionID)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to delete transaction", "userID", userID, "transactionID", transactionID, "error", err)
		return err
	}
	if !deleted {
		return ErrTransactionNotFound
	}

	s.publishEvent(ctx, models.EventOperationDelete, userID, transactionID, nil)

	return nil
}

func (s *TransactionService) ensureUser(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to get user", "userID", userID, "error", err)
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}

// normalizeTransaction validates caller input and canonicalizes the type tag.
func normalizeTransaction(in models.TransactionDB) (models.TransactionDB, error) {
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	if in.TransactionID == "" {
		return in, fmt.Errorf("%w: id is required", ErrInvalidTransaction)
	}

	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	if in.Type != models.TransactionTypeExpense && in.Type != models.TransactionTypeIncome {
		return in, fmt.Errorf("%w: type must be %s or %s",
			ErrInvalidTransaction, models.TransactionTypeExpense, models.TransactionTypeIncome)
	}

	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		return in, fmt.Errorf("%w: category is required", ErrInvalidTransaction)
	}

	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return in, fmt.Errorf("%w: amount must be a finite number", ErrInvalidTransaction)
	}

	in.Date = strings.TrimSpace(in.Date)
	if _, err := time.Parse(models.TransactionDateLayout, in.Date); err != nil {
		return in, fmt.Errorf("%w: date must be dd/MM/yyyy", ErrInvalidTransaction)
	}

	return in, nil
}

// publishEvent hands a transaction change to Kafka once the request transaction
// has committed. The write is bounded by publishTimeout; failures are logged only.
func (s *TransactionService) publishEvent(ctx context.Context, operation, userID, transactionID string, tx *models.TransactionDB) {
	if s.kafkaWriter == nil {
		return
	}

	event := models.TransactionEvent{
		EventID:       uuid.NewString(),
		Operation:     operation,
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     s.now().UnixMilli(),
		Transaction:   tx,
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.FromContext(ctx).Errorw("Failed to marshal transaction event", "transaction_id", transactionID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(userID),
		Value: data,
	}

	s.afterCommit(ctx, func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
		defer cancel()

		log := logger.FromContext(ctx)
		if err := s.kafkaWriter.WriteMessages(writeCtx, msg); err != nil {
			log.Errorw("Failed to publish transaction event", "transaction_id", transactionID, "operation", operation, "error", err)
			return
		}
		log.Infow("Transaction event published", "transaction_id", transactionID, "operation", operation)
	})
}
