package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgersaga/internal/adapter/http/dto"
	"github.com/iho/ledgersaga/internal/domain"
)

// OutboxService defines the behavior needed by OutboxHandler.
type OutboxService interface {
	ListEvents(ctx context.Context, status domain.OutboxStatus, limit int) ([]*domain.OutboxEvent, error)
	Requeue(ctx context.Context, id string) error
}

// OutboxHandler lets operators inspect and requeue outbox rows.
type OutboxHandler struct {
	outboxUC OutboxService
}

// NewOutboxHandler creates a new OutboxHandler.
func NewOutboxHandler(outboxUC OutboxService) *OutboxHandler {
	return &OutboxHandler{outboxUC: outboxUC}
}

// List lists outbox events in one status. Defaults to FAILED.
func (h *OutboxHandler) List(w http.ResponseWriter, r *http.Request) {
	raw := strings.ToUpper(r.URL.Query().Get("status"))
	if raw == "" {
		raw = string(domain.OutboxStatusFailed)
	}
	status, err := domain.ParseOutboxStatus(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid status", err.Error())
		return
	}

	events, err := h.outboxUC.ListEvents(r.Context(), status, parseIntQuery(r, "limit", 0))
	if err != nil {
		writeDomainError(w, "failed to list outbox events", err)
		return
	}

	resp := dto.ListOutboxEventsResponse{
		Events: make([]*dto.OutboxEventResponse, len(events)),
		Total:  int64(len(events)),
	}
	for i, e := range events {
		resp.Events[i] = dto.OutboxEventFromDomain(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Requeue moves a FAILED event back to PENDING.
func (h *OutboxHandler) Requeue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing event ID", "")
		return
	}

	if err := h.outboxUC.Requeue(r.Context(), id); err != nil {
		writeDomainError(w, "failed to requeue event", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
