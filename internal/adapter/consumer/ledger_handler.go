package consumer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/infrastructure/logging"
	"github.com/iho/ledgersaga/internal/infrastructure/messaging"
	"github.com/iho/ledgersaga/internal/usecase"
)

// TransferApplier is the ledger use case driven by transaction.requested.
type TransferApplier interface {
	ApplyTransfer(ctx context.Context, meta domain.EventMeta, req domain.TransactionRequestedEvent) (*usecase.TransferResult, error)
	FailTransfer(ctx context.Context, meta domain.EventMeta, req domain.TransactionRequestedEvent, cause error) error
}

// TransferRequestHandler consumes transaction.requested on the ledger side.
type TransferRequestHandler struct {
	transfers TransferApplier
	logger    zerolog.Logger
}

// NewTransferRequestHandler creates a new TransferRequestHandler.
func NewTransferRequestHandler(transfers TransferApplier, logger zerolog.Logger) *TransferRequestHandler {
	return &TransferRequestHandler{transfers: transfers, logger: logger}
}

// Handle implements messaging.Handler.
func (h *TransferRequestHandler) Handle(ctx context.Context, msg messaging.Message) error {
	meta, req, err := h.parse(msg)
	if err != nil {
		return err
	}
	ctx = logging.WithTransactionID(logging.WithEventID(ctx, meta.EventID), req.TransactionID)

	result, err := h.transfers.ApplyTransfer(ctx, meta, req)
	if err != nil {
		return err
	}

	if result.Duplicate {
		h.logger.Debug().Str("event_id", meta.EventID).Str("transaction_id", req.TransactionID).Msg("duplicate transfer request acknowledged")
	}
	return nil
}

// Recover implements messaging.Recoverer. It records a FAILED outcome so the
// requester sees a terminal state.
func (h *TransferRequestHandler) Recover(ctx context.Context, msg messaging.Message, cause error) error {
	meta, req, err := h.parse(msg)
	if err != nil {
		return err
	}
	ctx = logging.WithTransactionID(logging.WithEventID(ctx, meta.EventID), req.TransactionID)
	return h.transfers.FailTransfer(ctx, meta, req, cause)
}

func (h *TransferRequestHandler) parse(msg messaging.Message) (domain.EventMeta, domain.TransactionRequestedEvent, error) {
	var req domain.TransactionRequestedEvent

	meta, err := MetaFromMessage(msg)
	if err != nil {
		return meta, req, err
	}
	if err := decode(msg, &req); err != nil {
		return meta, req, err
	}
	return meta, req, nil
}
