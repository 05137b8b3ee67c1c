package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersaga/internal/domain"
)

// TransactionUseCase drives the transfer-side saga: it opens transactions as
// PENDING and finalizes them when the ledger reports an outcome.
type TransactionUseCase struct {
	txManager       TransactionManager
	guard           *IdempotencyGuard
	transactionRepo TransactionRepository
	replicaRepo     AccountReplicaRepository
	outbox          *OutboxWriter
	idGen           IDGenerator
	metrics         Metrics
	clock           Clock
	logger          *slog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	guard *IdempotencyGuard,
	transactionRepo TransactionRepository,
	replicaRepo AccountReplicaRepository,
	outbox *OutboxWriter,
	idGen IDGenerator,
	metrics Metrics,
	clock Clock,
	logger *slog.Logger,
) *TransactionUseCase {
	if metrics == nil {
		metrics = NopMetrics()
	}
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionUseCase{
		txManager:       txManager,
		guard:           guard,
		transactionRepo: transactionRepo,
		replicaRepo:     replicaRepo,
		outbox:          outbox,
		idGen:           idGen,
		metrics:         metrics,
		clock:           clock,
		logger:          logger,
	}
}

// CreateTransactionInput represents input for requesting a transfer.
type CreateTransactionInput struct {
	FromAccountNumber string
	ToAccountNumber   string
	Amount            decimal.Decimal
	Type              domain.TransactionType
	Description       string
}

// CreateTransaction persists a PENDING transaction together with its
// transaction.requested event. It does not wait for the outcome.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	from := strings.TrimSpace(input.FromAccountNumber)
	to := strings.TrimSpace(input.ToAccountNumber)

	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: both account numbers are required", domain.ErrInvalidTransactionData)
	}
	if from == to {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTransactionData, domain.ErrSameAccount)
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTransactionData, err)
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTransactionData, err)
	}
	if input.Type == "" {
		input.Type = domain.TransactionTypeTransfer
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTransactionData, domain.ErrInvalidTransactionType)
	}

	fromAccount, err := uc.replicaRepo.GetByNumber(ctx, from)
	if err != nil {
		return nil, err
	}
	toAccount, err := uc.replicaRepo.GetByNumber(ctx, to)
	if err != nil {
		return nil, err
	}

	if !fromAccount.IsActive() || !toAccount.IsActive() {
		return nil, fmt.Errorf("%w: both accounts must be active", domain.ErrInvalidTransactionData)
	}

	now := uc.clock.Now()
	transaction := &domain.Transaction{
		ID:                 uc.idGen.Generate(),
		FromAccountID:      fromAccount.ID,
		ToAccountID:        toAccount.ID,
		Amount:             input.Amount,
		Type:               input.Type,
		Description:        input.Description,
		Status:             domain.TransactionStatusPending,
		Observations:       domain.ObservationRequested,
		FromAccountVersion: fromAccount.Version,
		ToAccountVersion:   toAccount.Version,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := transaction.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTransactionData, err)
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.transactionRepo.Create(ctx, tx, transaction); err != nil {
		return nil, err
	}

	_, err = uc.outbox.Append(ctx, tx, OutboxMessage{
		AggregateType: domain.AggregateTypeTransaction,
		AggregateID:   transaction.ID,
		EventType:     domain.EventTypeTransactionRequested,
		Topic:         domain.TopicTransactionRequested,
		Payload: domain.TransactionRequestedEvent{
			TransactionID:      transaction.ID,
			FromAccountID:      transaction.FromAccountID,
			FromAccountVersion: transaction.FromAccountVersion,
			ToAccountID:        transaction.ToAccountID,
			ToAccountVersion:   transaction.ToAccountVersion,
			Amount:             transaction.Amount,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.TransactionCreated()
	uc.logger.Info("transaction requested",
		"transaction_id", transaction.ID,
		"from_account_id", transaction.FromAccountID,
		"to_account_id", transaction.ToAccountID,
		"amount", transaction.Amount.String(),
	)

	return transaction, nil
}

// CompleteTransaction applies a transaction.completed event. A transaction
// that already left PENDING is not changed, and the event is still recorded
// as processed. An unknown transaction id yields domain.ErrTransactionNotFound.
func (uc *TransactionUseCase) CompleteTransaction(ctx context.Context, meta domain.EventMeta, event domain.TransactionCompletedEvent) (bool, error) {
	if event.TransactionID == "" {
		return false, domain.ErrMalformedEvent
	}
	if !event.Outcome.IsTerminal() {
		return false, fmt.Errorf("%w: outcome %q is not terminal", domain.ErrInvalidTransactionData, event.Outcome)
	}

	var changed bool
	applied, err := uc.guard.Run(ctx, meta, func(ctx context.Context, tx Transaction) error {
		updated, err := uc.transactionRepo.Complete(ctx, tx, event.TransactionID, event.Outcome, event.Observations, uc.clock.Now())
		if err != nil {
			return err
		}
		changed = updated
		if updated {
			return nil
		}

		current, err := uc.transactionRepo.GetByIDTx(ctx, tx, event.TransactionID)
		if err != nil {
			return err
		}
		uc.logger.Warn("completion for finished transaction ignored",
			"event_id", meta.EventID,
			"transaction_id", current.ID,
			"status", current.Status,
			"outcome", event.Outcome,
		)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			uc.logger.Error("completion for unknown transaction",
				"event_id", meta.EventID,
				"transaction_id", event.TransactionID,
			)
		}
		return false, err
	}

	if applied && changed {
		uc.metrics.TransactionCompleted(event.Outcome)
		uc.logger.Info("transaction completed",
			"event_id", meta.EventID,
			"transaction_id", event.TransactionID,
			"status", event.Outcome,
		)
	}

	return applied, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// ListTransactionsInput represents input for listing transactions.
type ListTransactionsInput struct {
	Limit  int
	Offset int
}

// ListTransactions lists transactions, newest first.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.transactionRepo.List(ctx, limit, offset)
}
