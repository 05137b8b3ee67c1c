package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersaga/internal/domain"
)

// TransferUseCase applies transfer requests to ledger accounts. It is the
// ledger-side step of the transfer saga.
type TransferUseCase struct {
	guard       *IdempotencyGuard
	accountRepo AccountRepository
	outbox      *OutboxWriter
	metrics     Metrics
	clock       Clock
	logger      *slog.Logger
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	guard *IdempotencyGuard,
	accountRepo AccountRepository,
	outbox *OutboxWriter,
	metrics Metrics,
	clock Clock,
	logger *slog.Logger,
) *TransferUseCase {
	if metrics == nil {
		metrics = NopMetrics()
	}
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferUseCase{
		guard:       guard,
		accountRepo: accountRepo,
		outbox:      outbox,
		metrics:     metrics,
		clock:       clock,
		logger:      logger,
	}
}

// TransferResult is the outcome of one ApplyTransfer call.
type TransferResult struct {
	Outcome      domain.TransactionStatus
	Observations string
	// Duplicate is set when the event had already been applied and nothing
	// was done.
	Duplicate bool
}

// ApplyTransfer validates req against the current accounts and, when valid,
// debits and credits them. Exactly one transaction.completed event is emitted
// for every applied request. Storage errors are returned unchanged so the
// transport can redeliver.
func (uc *TransferUseCase) ApplyTransfer(ctx context.Context, meta domain.EventMeta, req domain.TransactionRequestedEvent) (*TransferResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := uc.clock.Now()
	result := &TransferResult{}

	applied, err := uc.guard.Run(ctx, meta, func(ctx context.Context, tx Transaction) error {
		outcome, observations, err := uc.applyTransfer(ctx, tx, req)
		if err != nil {
			return err
		}
		result.Outcome = outcome
		result.Observations = observations
		return uc.emitCompletion(ctx, tx, req.TransactionID, outcome, observations)
	})
	if err != nil {
		return nil, err
	}

	if !applied {
		result.Duplicate = true
		return result, nil
	}

	uc.metrics.TransferApplied(result.Outcome)
	uc.metrics.ObserveTransferDuration(uc.clock.Now().Sub(start))
	uc.logger.Info("transfer processed",
		"event_id", meta.EventID,
		"transaction_id", req.TransactionID,
		"outcome", result.Outcome,
		"observations", result.Observations,
	)

	return result, nil
}

func (uc *TransferUseCase) applyTransfer(ctx context.Context, tx Transaction, req domain.TransactionRequestedEvent) (domain.TransactionStatus, string, error) {
	if req.FromAccountID == req.ToAccountID {
		return domain.TransactionStatusIncorrect, domain.ObservationSameAccount, nil
	}

	from, err := uc.accountRepo.GetByIDTx(ctx, tx, req.FromAccountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.TransactionStatusFailed, domain.ObservationAccountNotFound, nil
	}
	if err != nil {
		return "", "", err
	}

	to, err := uc.accountRepo.GetByIDTx(ctx, tx, req.ToAccountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.TransactionStatusFailed, domain.ObservationAccountNotFound, nil
	}
	if err != nil {
		return "", "", err
	}

	switch {
	case !from.IsAvailableAt(req.FromAccountVersion):
		return domain.TransactionStatusIncorrect, domain.ObservationSourceUnavailable, nil
	case !from.HasFunds(req.Amount):
		return domain.TransactionStatusIncorrect, domain.ObservationInsufficientFunds, nil
	case !to.IsAvailableAt(req.ToAccountVersion):
		return domain.TransactionStatusIncorrect, domain.ObservationTargetUnavailable, nil
	}

	if err := uc.moveBalance(ctx, tx, from, from.ApplyDebit(req.Amount)); err != nil {
		return "", "", err
	}
	if err := uc.moveBalance(ctx, tx, to, to.ApplyCredit(req.Amount)); err != nil {
		return "", "", err
	}

	return domain.TransactionStatusCorrect, domain.ObservationApplied, nil
}

func (uc *TransferUseCase) moveBalance(ctx context.Context, tx Transaction, account *domain.Account, balance decimal.Decimal) error {
	now := uc.clock.Now()

	version, err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, balance, account.Version, now)
	if err != nil {
		return err
	}

	account.Balance = balance
	account.Version = version
	account.UpdatedAt = now

	return uc.outbox.AppendAccountEvent(ctx, tx, domain.TopicAccountUpdated, domain.EventTypeAccountUpdated, account)
}

func (uc *TransferUseCase) emitCompletion(ctx context.Context, tx Transaction, transactionID string, outcome domain.TransactionStatus, observations string) error {
	_, err := uc.outbox.Append(ctx, tx, OutboxMessage{
		AggregateType: domain.AggregateTypeTransaction,
		AggregateID:   transactionID,
		EventType:     domain.EventTypeTransactionCompleted,
		Topic:         domain.TopicTransactionCompleted,
		Payload: domain.TransactionCompletedEvent{
			TransactionID: transactionID,
			Outcome:       outcome,
			Observations:  observations,
		},
	})
	return err
}

// FailTransfer records a FAILED outcome for a request whose processing kept
// failing after the transport gave up retrying. Balances are not touched.
func (uc *TransferUseCase) FailTransfer(ctx context.Context, meta domain.EventMeta, req domain.TransactionRequestedEvent, cause error) error {
	if req.TransactionID == "" {
		return domain.ErrMalformedEvent
	}

	applied, err := uc.guard.Run(ctx, meta, func(ctx context.Context, tx Transaction) error {
		return uc.emitCompletion(ctx, tx, req.TransactionID, domain.TransactionStatusFailed, domain.ObservationProcessingFailed)
	})
	if err != nil {
		return err
	}

	if applied {
		uc.metrics.TransferApplied(domain.TransactionStatusFailed)
		uc.logger.Error("transfer marked as failed",
			"event_id", meta.EventID,
			"transaction_id", req.TransactionID,
			"cause", cause,
		)
	}

	return nil
}
