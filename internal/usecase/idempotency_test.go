package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
	"github.com/iho/ledgersaga/internal/usecase/mocks"
)

type guardDeps struct {
	txMgr     *mocks.MockTransactionManager
	tx        *mocks.MockTransaction
	processed *mocks.MockProcessedEventRepository
	cache     *mocks.MockProcessedEventCache
}

func newGuard(t *testing.T) (*usecase.IdempotencyGuard, guardDeps) {
	ctrl := gomock.NewController(t)
	deps := guardDeps{
		txMgr:     mocks.NewMockTransactionManager(ctrl),
		tx:        mocks.NewMockTransaction(ctrl),
		processed: mocks.NewMockProcessedEventRepository(ctrl),
		cache:     mocks.NewMockProcessedEventCache(ctrl),
	}
	guard := usecase.NewIdempotencyGuard(deps.txMgr, deps.processed, discardLogger())
	return guard, deps
}

var testMeta = domain.EventMeta{EventID: "evt-1", EventType: "TransactionRequested", Topic: domain.TopicTransactionRequested}

func TestIdempotencyGuard_AppliesOnce(t *testing.T) {
	guard, d := newGuard(t)
	ctx := context.Background()

	gomock.InOrder(
		d.txMgr.EXPECT().Begin(ctx).Return(d.tx, nil),
		d.processed.EXPECT().Exists(ctx, d.tx, "evt-1").Return(false, nil),
		d.processed.EXPECT().Insert(ctx, d.tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ usecase.Transaction, e *domain.ProcessedEvent) error {
				assert.Equal(t, "evt-1", e.EventID)
				assert.Equal(t, domain.TopicTransactionRequested, e.Topic)
				return nil
			}),
		d.tx.EXPECT().Commit(ctx).Return(nil),
	)
	d.tx.EXPECT().Rollback(ctx).Return(nil)

	calls := 0
	applied, err := guard.Run(ctx, testMeta, func(context.Context, usecase.Transaction) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyGuard_SkipsRecordedEvent(t *testing.T) {
	guard, d := newGuard(t)
	ctx := context.Background()

	d.txMgr.EXPECT().Begin(ctx).Return(d.tx, nil)
	d.processed.EXPECT().Exists(ctx, d.tx, "evt-1").Return(true, nil)
	d.tx.EXPECT().Rollback(ctx).Return(nil)

	applied, err := guard.Run(ctx, testMeta, func(context.Context, usecase.Transaction) error {
		t.Fatal("apply must not run for a recorded event")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestIdempotencyGuard_ApplyErrorRollsBack(t *testing.T) {
	guard, d := newGuard(t)
	ctx := context.Background()
	boom := errors.New("boom")

	d.txMgr.EXPECT().Begin(ctx).Return(d.tx, nil)
	d.processed.EXPECT().Exists(ctx, d.tx, "evt-1").Return(false, nil)
	d.tx.EXPECT().Rollback(ctx).Return(nil)

	applied, err := guard.Run(ctx, testMeta, func(context.Context, usecase.Transaction) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, applied)
}

func TestIdempotencyGuard_LostInsertRaceIsDuplicate(t *testing.T) {
	guard, d := newGuard(t)
	ctx := context.Background()

	d.txMgr.EXPECT().Begin(ctx).Return(d.tx, nil)
	d.processed.EXPECT().Exists(ctx, d.tx, "evt-1").Return(false, nil)
	d.processed.EXPECT().Insert(ctx, d.tx, gomock.Any()).Return(domain.ErrDuplicateEvent)
	d.tx.EXPECT().Rollback(ctx).Return(nil)

	applied, err := guard.Run(ctx, testMeta, func(context.Context, usecase.Transaction) error { return nil })
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestIdempotencyGuard_MissingEventID(t *testing.T) {
	guard, _ := newGuard(t)

	_, err := guard.Run(context.Background(), domain.EventMeta{}, func(context.Context, usecase.Transaction) error { return nil })
	assert.ErrorIs(t, err, domain.ErrMissingEventID)
}

func TestIdempotencyGuard_CacheHitSkipsStorage(t *testing.T) {
	guard, d := newGuard(t)
	ctx := context.Background()
	guard.WithCache(d.cache)

	d.cache.EXPECT().Seen(ctx, "evt-1").Return(true, nil)

	applied, err := guard.Run(ctx, testMeta, func(context.Context, usecase.Transaction) error {
		t.Fatal("apply must not run on a cache hit")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestIdempotencyGuard_CacheErrorFallsBackToStorage(t *testing.T) {
	guard, d := newGuard(t)
	ctx := context.Background()
	guard.WithCache(d.cache)

	d.cache.EXPECT().Seen(ctx, "evt-1").Return(false, errors.New("redis down"))
	d.txMgr.EXPECT().Begin(ctx).Return(d.tx, nil)
	d.processed.EXPECT().Exists(ctx, d.tx, "evt-1").Return(false, nil)
	d.processed.EXPECT().Insert(ctx, d.tx, gomock.Any()).Return(nil)
	d.tx.EXPECT().Commit(ctx).Return(nil)
	d.tx.EXPECT().Rollback(ctx).Return(nil)
	d.cache.EXPECT().Remember(ctx, "evt-1").Return(errors.New("redis down"))

	applied, err := guard.Run(ctx, testMeta, func(context.Context, usecase.Transaction) error { return nil })
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestIdempotencyGuard_UsesRetrier(t *testing.T) {
	guard, d := newGuard(t)
	ctx := context.Background()
	retrier := mocks.NewMockRetrier(gomock.NewController(t))
	guard.WithRetrier(retrier)

	transient := errors.New("serialization failure")
	retrier.EXPECT().Retry(ctx, gomock.Any()).DoAndReturn(func(ctx context.Context, op func() error) error {
		if err := op(); !errors.Is(err, transient) {
			return err
		}
		return op()
	})

	d.txMgr.EXPECT().Begin(ctx).Return(d.tx, nil).Times(2)
	d.processed.EXPECT().Exists(ctx, d.tx, "evt-1").Return(false, nil).Times(2)
	d.processed.EXPECT().Insert(ctx, d.tx, gomock.Any()).Return(nil)
	d.tx.EXPECT().Commit(ctx).Return(nil)
	d.tx.EXPECT().Rollback(ctx).Return(nil).Times(2)

	attempts := 0
	applied, err := guard.Run(ctx, testMeta, func(context.Context, usecase.Transaction) error {
		attempts++
		if attempts == 1 {
			return transient
		}
		return nil
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 2, attempts)
}
