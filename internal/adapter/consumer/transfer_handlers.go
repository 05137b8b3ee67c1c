package consumer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/infrastructure/logging"
	"github.com/iho/ledgersaga/internal/infrastructure/messaging"
)

// TransactionCompleter is the transfer use case driven by
// transaction.completed.
type TransactionCompleter interface {
	CompleteTransaction(ctx context.Context, meta domain.EventMeta, event domain.TransactionCompletedEvent) (bool, error)
}

// AccountEventApplier is the replica use case driven by account events.
type AccountEventApplier interface {
	ApplyAccountEvent(ctx context.Context, meta domain.EventMeta, event domain.AccountEvent) (bool, error)
}

// CompletionHandler consumes transaction.completed on the transfer side.
type CompletionHandler struct {
	transactions TransactionCompleter
	logger       zerolog.Logger
}

// NewCompletionHandler creates a new CompletionHandler.
func NewCompletionHandler(transactions TransactionCompleter, logger zerolog.Logger) *CompletionHandler {
	return &CompletionHandler{transactions: transactions, logger: logger}
}

// Handle implements messaging.Handler.
func (h *CompletionHandler) Handle(ctx context.Context, msg messaging.Message) error {
	meta, err := MetaFromMessage(msg)
	if err != nil {
		return err
	}

	var event domain.TransactionCompletedEvent
	if err := decode(msg, &event); err != nil {
		return err
	}
	ctx = logging.WithTransactionID(logging.WithEventID(ctx, meta.EventID), event.TransactionID)

	applied, err := h.transactions.CompleteTransaction(ctx, meta, event)
	if err != nil {
		return err
	}
	if !applied {
		h.logger.Debug().Str("event_id", meta.EventID).Msg("duplicate completion acknowledged")
	}
	return nil
}

// AccountEventHandler consumes account.created and account.updated on the
// transfer side.
type AccountEventHandler struct {
	replicas AccountEventApplier
	logger   zerolog.Logger
}

// NewAccountEventHandler creates a new AccountEventHandler.
func NewAccountEventHandler(replicas AccountEventApplier, logger zerolog.Logger) *AccountEventHandler {
	return &AccountEventHandler{replicas: replicas, logger: logger}
}

// Handle implements messaging.Handler.
func (h *AccountEventHandler) Handle(ctx context.Context, msg messaging.Message) error {
	switch msg.Topic {
	case domain.TopicAccountCreated, domain.TopicAccountUpdated:
	default:
		return fmt.Errorf("%w: unexpected topic %q", domain.ErrMalformedEvent, msg.Topic)
	}

	meta, err := MetaFromMessage(msg)
	if err != nil {
		return err
	}

	var event domain.AccountEvent
	if err := decode(msg, &event); err != nil {
		return err
	}
	ctx = logging.WithEventID(ctx, meta.EventID)

	applied, err := h.replicas.ApplyAccountEvent(ctx, meta, event)
	if err != nil {
		return err
	}
	if !applied {
		h.logger.Debug().Str("event_id", meta.EventID).Str("account_id", event.AccountID).Msg("duplicate account event acknowledged")
	}
	return nil
}
