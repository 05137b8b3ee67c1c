package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersaga/internal/domain"
)

// AccountRepository defines data access for ledger accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	// UpdateBalance stores balance only if the row is still at expectedVersion
	// and returns the bumped version. A version mismatch yields
	// domain.ErrConcurrentUpdate.
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) (int64, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.AccountStatus, expectedVersion int64, updatedAt time.Time) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// AccountReplicaRepository defines data access for the transfer service's
// read-only account copies.
type AccountReplicaRepository interface {
	GetByID(ctx context.Context, id string) (*domain.AccountReplica, error)
	GetByNumber(ctx context.Context, number string) (*domain.AccountReplica, error)
	// Upsert writes replica unless the stored row already has an equal or
	// newer version. It reports whether a write happened.
	Upsert(ctx context.Context, tx Transaction, replica *domain.AccountReplica) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*domain.AccountReplica, error)
}

// TransactionRepository defines data access for transfer requests.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	// Complete moves a PENDING transaction to status. It reports false when
	// no PENDING row matched.
	Complete(ctx context.Context, tx Transaction, id string, status domain.TransactionStatus, observations string, updatedAt time.Time) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Transaction, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Append(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	NextPending(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	// RecordFailure counts one failed delivery. The event goes FAILED once
	// attempts reaches maxAttempts. Rows no longer PENDING are left alone.
	RecordFailure(ctx context.Context, id, reason string, maxAttempts int) (domain.OutboxStatus, int, error)
	ListByStatus(ctx context.Context, status domain.OutboxStatus, limit int) ([]*domain.OutboxEvent, error)
	Requeue(ctx context.Context, id string) error
	DeleteSentBefore(ctx context.Context, before time.Time) (int64, error)
}

// ProcessedEventRepository defines data access for the consumed-event ledger.
type ProcessedEventRepository interface {
	Exists(ctx context.Context, tx Transaction, eventID string) (bool, error)
	// Insert returns domain.ErrDuplicateEvent if eventID is already recorded.
	Insert(ctx context.Context, tx Transaction, event *domain.ProcessedEvent) error
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ProcessedEventCache is a best-effort fast path in front of
// ProcessedEventRepository. It is never authoritative.
type ProcessedEventCache interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Remember(ctx context.Context, eventID string) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim so the key can be retried.
	Release(ctx context.Context, key string) error
}

// Metrics records counters and timers. Implementations must not block.
type Metrics interface {
	TransferApplied(outcome domain.TransactionStatus)
	ObserveTransferDuration(d time.Duration)
	TransactionCreated()
	TransactionCompleted(outcome domain.TransactionStatus)
	ReplicaUpdated(applied bool)
	DuplicateEventSkipped(topic string)
	OutboxSent(topic string)
	OutboxRequeued(topic string)
	OutboxFailed(topic string)
	ObserveOutboxPass(d time.Duration)
}
