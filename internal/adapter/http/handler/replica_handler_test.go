package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/ledgersaga/internal/adapter/http/dto"
	"github.com/iho/ledgersaga/internal/domain"
)

type replicaServiceStub struct {
	getFn  func(ctx context.Context, id string) (*domain.AccountReplica, error)
	listFn func(ctx context.Context, limit, offset int) ([]*domain.AccountReplica, error)
}

func (s *replicaServiceStub) GetReplica(ctx context.Context, id string) (*domain.AccountReplica, error) {
	return s.getFn(ctx, id)
}

func (s *replicaServiceStub) ListReplicas(ctx context.Context, limit, offset int) ([]*domain.AccountReplica, error) {
	return s.listFn(ctx, limit, offset)
}

func TestReplicaHandler(t *testing.T) {
	handler := NewReplicaHandler(&replicaServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.AccountReplica, error) {
			if id != "acc-1" {
				return nil, domain.ErrAccountNotFound
			}
			return &domain.AccountReplica{ID: id, AccountNumber: "001", Status: domain.AccountStatusActive, Version: 4}, nil
		},
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.AccountReplica, error) {
			return []*domain.AccountReplica{{ID: "acc-1"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1", nil), "id", "acc-1"))
	var replica dto.ReplicaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &replica); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if replica.Version != 4 {
		t.Fatalf("expected version 4, got %d", replica.Version)
	}

	rec = httptest.NewRecorder()
	handler.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/accounts/x", nil), "id", "x"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/accounts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
