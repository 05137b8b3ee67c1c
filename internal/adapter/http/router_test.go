package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/ledgersaga/internal/adapter/http/handler"
	apimiddleware "github.com/iho/ledgersaga/internal/adapter/http/middleware"
	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/infrastructure/metrics"
	"github.com/iho/ledgersaga/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newLedgerRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newLedgerRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1, nil)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newTransferRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"from_account_number":"001","to_account_number":"002","amount":"5"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/", strings.NewReader(body))
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	router := NewRouter(newLedgerRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = m
		cfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acc-1", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `path="/api/v1/accounts/{id}"`) {
		t.Fatalf("expected route pattern label in metrics output")
	}
}

func TestNewRouter_RegistersServiceRoutes(t *testing.T) {
	tests := []struct {
		name     string
		cfg      RouterConfig
		expected []string
		absent   []string
	}{
		{
			name: "ledger",
			cfg:  newLedgerRouterConfig(),
			expected: []string{
				"GET /health",
				"GET /ready",
				"POST /api/v1/accounts/",
				"GET /api/v1/accounts/",
				"GET /api/v1/accounts/{id}",
				"GET /api/v1/accounts/by-number/{number}",
				"PATCH /api/v1/accounts/{id}/status",
				"GET /api/v1/outbox/",
				"POST /api/v1/outbox/{id}/requeue",
			},
			absent: []string{"POST /api/v1/transactions/"},
		},
		{
			name: "transfer",
			cfg:  newTransferRouterConfig(),
			expected: []string{
				"POST /api/v1/transactions/",
				"GET /api/v1/transactions/",
				"GET /api/v1/transactions/{id}",
				"GET /api/v1/replicas/",
				"GET /api/v1/replicas/{id}",
				"GET /api/v1/outbox/",
			},
			absent: []string{"POST /api/v1/accounts/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chiRoutes, ok := NewRouter(tt.cfg).(chi.Router)
			if !ok {
				t.Fatal("router does not implement chi.Routes")
			}

			seen := map[string]bool{}
			if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
				seen[method+" "+route] = true
				return nil
			}); err != nil {
				t.Fatalf("walk failed: %v", err)
			}

			for _, route := range tt.expected {
				if !seen[route] {
					t.Fatalf("expected route %s to be registered", route)
				}
			}
			for _, route := range tt.absent {
				if seen[route] {
					t.Fatalf("expected route %s to be absent", route)
				}
			}
		})
	}
}

func newLedgerRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler:  handler.NewHealthHandler(),
		AccountHandler: handler.NewAccountHandler(stubAccountService{}),
		OutboxHandler:  handler.NewOutboxHandler(stubOutboxService{}),
		Logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func newTransferRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler:      handler.NewHealthHandler(),
		TransactionHandler: handler.NewTransactionHandler(stubTransactionService{}),
		ReplicaHandler:     handler.NewReplicaHandler(stubReplicaService{}),
		OutboxHandler:      handler.NewOutboxHandler(stubOutboxService{}),
		Logger:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

type stubAccountService struct{}

func (stubAccountService) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return &domain.Account{ID: "acc"}, nil
}

func (stubAccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return &domain.Account{ID: id}, nil
}

func (stubAccountService) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return &domain.Account{ID: "acc", AccountNumber: number}, nil
}

func (stubAccountService) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return []*domain.Account{}, nil
}

func (stubAccountService) UpdateAccountStatus(ctx context.Context, id string, status domain.AccountStatus) (*domain.Account, error) {
	return &domain.Account{ID: id, Status: status}, nil
}

type stubTransactionService struct{}

func (stubTransactionService) CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
	return &domain.Transaction{ID: "tx", Status: domain.TransactionStatusPending}, nil
}

func (stubTransactionService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return &domain.Transaction{ID: id}, nil
}

func (stubTransactionService) ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error) {
	return []*domain.Transaction{}, nil
}

type stubReplicaService struct{}

func (stubReplicaService) GetReplica(ctx context.Context, id string) (*domain.AccountReplica, error) {
	return &domain.AccountReplica{ID: id}, nil
}

func (stubReplicaService) ListReplicas(ctx context.Context, limit, offset int) ([]*domain.AccountReplica, error) {
	return []*domain.AccountReplica{}, nil
}

type stubOutboxService struct{}

func (stubOutboxService) ListEvents(ctx context.Context, status domain.OutboxStatus, limit int) ([]*domain.OutboxEvent, error) {
	return []*domain.OutboxEvent{}, nil
}

func (stubOutboxService) Requeue(ctx context.Context, id string) error {
	return nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
