package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgersaga/internal/adapter/http/dto"
	"github.com/iho/ledgersaga/internal/domain"
)

// ReplicaService defines the behavior needed by ReplicaHandler.
type ReplicaService interface {
	GetReplica(ctx context.Context, id string) (*domain.AccountReplica, error)
	ListReplicas(ctx context.Context, limit, offset int) ([]*domain.AccountReplica, error)
}

// ReplicaHandler exposes the transfer service's account replicas.
type ReplicaHandler struct {
	replicaUC ReplicaService
}

// NewReplicaHandler creates a new ReplicaHandler.
func NewReplicaHandler(replicaUC ReplicaService) *ReplicaHandler {
	return &ReplicaHandler{replicaUC: replicaUC}
}

// Get retrieves a replica by account ID.
func (h *ReplicaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	replica, err := h.replicaUC.GetReplica(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReplicaFromDomain(replica))
}

// List lists replicas.
func (h *ReplicaHandler) List(w http.ResponseWriter, r *http.Request) {
	replicas, err := h.replicaUC.ListReplicas(r.Context(), parseIntQuery(r, "limit", 0), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	resp := dto.ListReplicasResponse{
		Accounts: make([]*dto.ReplicaResponse, len(replicas)),
		Total:    int64(len(replicas)),
	}
	for i, rep := range replicas {
		resp.Accounts[i] = dto.ReplicaFromDomain(rep)
	}

	writeJSON(w, http.StatusOK, resp)
}
