package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgersaga/internal/domain"
)

func seedAccount(t *testing.T, s *Store, id, number string, balance int64) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, NewAccountRepository(s).Create(ctx, tx, &domain.Account{
		ID:            id,
		AccountNumber: number,
		Balance:       decimal.NewFromInt(balance),
		Status:        domain.AccountStatusActive,
	}))
	require.NoError(t, tx.Commit(ctx))
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	accounts := NewAccountRepository(s)
	outbox := NewOutboxRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, accounts.Create(ctx, tx, &domain.Account{ID: "a1", AccountNumber: "001"}))
	require.NoError(t, outbox.Append(ctx, tx, &domain.OutboxEvent{ID: "e1", Status: domain.OutboxStatusPending}))
	require.NoError(t, tx.Rollback(ctx))

	_, err = accounts.GetByID(ctx, "a1")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Empty(t, outbox.All())
}

func TestStore_FaultAbortsTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")
	s.SetFault(func(op string) error {
		if op == OpOutboxAppend {
			return boom
		}
		return nil
	})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, NewAccountRepository(s).Create(ctx, tx, &domain.Account{ID: "a1", AccountNumber: "001"}))
	err = NewOutboxRepository(s).Append(ctx, tx, &domain.OutboxEvent{ID: "e1"})
	require.ErrorIs(t, err, boom)
	require.NoError(t, tx.Rollback(ctx))

	_, err = NewAccountRepository(s).GetByID(ctx, "a1")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestStore_CommitFault(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.SetFault(func(op string) error {
		if op == OpCommit {
			return errors.New("connection reset")
		}
		return nil
	})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, NewAccountRepository(s).Create(ctx, tx, &domain.Account{ID: "a1", AccountNumber: "001"}))
	require.Error(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx))

	s.SetFault(nil)
	_, err = NewAccountRepository(s).GetByID(ctx, "a1")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	// the store is usable again
	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))
}

func TestAccountRepository_UpdateBalanceChecksVersion(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedAccount(t, s, "a1", "001", 100)
	repo := NewAccountRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	version, err := repo.UpdateBalance(ctx, tx, "a1", decimal.NewFromInt(60), 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	_, err = repo.UpdateBalance(ctx, tx, "a1", decimal.NewFromInt(20), 0, time.Now())
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)

	_, err = repo.UpdateBalance(ctx, tx, "a1", decimal.NewFromInt(-1), 1, time.Now())
	assert.ErrorIs(t, err, domain.ErrNegativeBalance)
}

func TestAccountRepository_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedAccount(t, s, "a1", "001", 0)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	err = NewAccountRepository(s).Create(ctx, tx, &domain.Account{ID: "a2", AccountNumber: "001"})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
}

func TestOutboxRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := NewOutboxRepository(s)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, tx, &domain.OutboxEvent{ID: "late", Status: domain.OutboxStatusPending, CreatedAt: base.Add(time.Second)}))
	require.NoError(t, repo.Append(ctx, tx, &domain.OutboxEvent{ID: "early", Status: domain.OutboxStatusPending, CreatedAt: base}))
	require.NoError(t, tx.Commit(ctx))

	pending, err := repo.NextPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "early", pending[0].ID)

	for i := 1; i < 3; i++ {
		status, attempts, err := repo.RecordFailure(ctx, "late", "broker down", 3)
		require.NoError(t, err)
		assert.Equal(t, i, attempts)
		assert.Equal(t, domain.OutboxStatusPending, status)
	}
	status, attempts, err := repo.RecordFailure(ctx, "late", "broker down", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, domain.OutboxStatusFailed, status)

	// further failures are ignored once FAILED
	status, attempts, err = repo.RecordFailure(ctx, "late", "broker down", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, domain.OutboxStatusFailed, status)

	require.NoError(t, repo.MarkSent(ctx, "early", base))
	require.NoError(t, repo.MarkSent(ctx, "early", base.Add(time.Hour)))
	e, _ := repo.Get("early")
	assert.Equal(t, base, *e.SentAt)

	assert.ErrorIs(t, repo.Requeue(ctx, "early"), domain.ErrOutboxNotRequeuable)
	require.NoError(t, repo.Requeue(ctx, "late"))
	e, _ = repo.Get("late")
	assert.Equal(t, domain.OutboxStatusPending, e.Status)
	assert.Zero(t, e.Attempts)

	n, err := repo.DeleteSentBefore(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProcessedEventRepository_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := NewProcessedEventRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, tx, &domain.ProcessedEvent{EventID: "e1"}))
	assert.ErrorIs(t, repo.Insert(ctx, tx, &domain.ProcessedEvent{EventID: "e1"}), domain.ErrDuplicateEvent)
	exists, err := repo.Exists(ctx, tx, "e1")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, 1, repo.Count())
}

func TestAccountReplicaRepository_UpsertIfNewer(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := NewAccountReplicaRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	written, err := repo.Upsert(ctx, tx, &domain.AccountReplica{ID: "a1", AccountNumber: "001", Version: 2})
	require.NoError(t, err)
	assert.True(t, written)

	written, err = repo.Upsert(ctx, tx, &domain.AccountReplica{ID: "a1", AccountNumber: "001", Version: 2})
	require.NoError(t, err)
	assert.False(t, written)

	written, err = repo.Upsert(ctx, tx, &domain.AccountReplica{ID: "a1", AccountNumber: "001", Version: 1})
	require.NoError(t, err)
	assert.False(t, written)

	written, err = repo.Upsert(ctx, tx, &domain.AccountReplica{ID: "a1", AccountNumber: "001", Version: 3})
	require.NoError(t, err)
	assert.True(t, written)
}
