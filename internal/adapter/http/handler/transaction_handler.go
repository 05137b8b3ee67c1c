package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgersaga/internal/adapter/http/dto"
	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
}

// TransactionHandler handles transfer requests on the transfer service.
type TransactionHandler struct {
	transactionUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC}
}

// Create records a PENDING transaction. The outcome arrives later, so the
// response is 202.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tx, err := h.transactionUC.CreateTransaction(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create transaction", err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.TransactionFromDomain(tx))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	tx, err := h.transactionUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(tx))
}

// List lists transactions, newest first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactionUC.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		Limit:  parseIntQuery(r, "limit", 0),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	resp := dto.ListTransactionsResponse{
		Transactions: make([]*dto.TransactionResponse, len(txs)),
		Total:        int64(len(txs)),
	}
	for i, tx := range txs {
		resp.Transactions[i] = dto.TransactionFromDomain(tx)
	}

	writeJSON(w, http.StatusOK, resp)
}
