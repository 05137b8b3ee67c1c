package usecase_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgersaga/internal/adapter/repository/memory"
	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
)

type transactionFixture struct {
	store        *memory.Store
	transactions *memory.TransactionRepository
	replicas     *memory.AccountReplicaRepository
	outbox       *memory.OutboxRepository
	processed    *memory.ProcessedEventRepository
	uc           *usecase.TransactionUseCase
}

func newTransactionFixture(t *testing.T, replicas ...domain.AccountReplica) transactionFixture {
	t.Helper()
	store := memory.NewStore()
	f := transactionFixture{
		store:        store,
		transactions: memory.NewTransactionRepository(store),
		replicas:     memory.NewAccountReplicaRepository(store),
		outbox:       memory.NewOutboxRepository(store),
		processed:    memory.NewProcessedEventRepository(store),
	}
	ids := &seqIDs{prefix: "T"}
	guard := usecase.NewIdempotencyGuard(store, f.processed, discardLogger())
	f.uc = usecase.NewTransactionUseCase(store, guard, f.transactions, f.replicas,
		usecase.NewOutboxWriter(f.outbox, ids, nil), ids, nil, nil, discardLogger())

	ctx := context.Background()
	for i := range replicas {
		tx, err := store.Begin(ctx)
		require.NoError(t, err)
		_, err = f.replicas.Upsert(ctx, tx, &replicas[i])
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))
	}
	return f
}

func activeReplicas() []domain.AccountReplica {
	return []domain.AccountReplica{
		{ID: "acc-x", AccountNumber: "001", Status: domain.AccountStatusActive, Version: 3},
		{ID: "acc-y", AccountNumber: "002", Status: domain.AccountStatusActive, Version: 5},
		{ID: "acc-z", AccountNumber: "003", Status: domain.AccountStatusInactive, Version: 1},
	}
}

func TestTransactionUseCase_CreateTransaction(t *testing.T) {
	f := newTransactionFixture(t, activeReplicas()...)

	tx, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		FromAccountNumber: "001",
		ToAccountNumber:   "002",
		Amount:            decimal.RequireFromString("12.50"),
		Description:       "rent",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionStatusPending, tx.Status)
	assert.Equal(t, domain.ObservationRequested, tx.Observations)
	assert.Equal(t, domain.TransactionTypeTransfer, tx.Type)
	assert.Equal(t, "acc-x", tx.FromAccountID)
	assert.Equal(t, int64(3), tx.FromAccountVersion)
	assert.Equal(t, int64(5), tx.ToAccountVersion)

	events := f.outbox.All()
	require.Len(t, events, 1)
	assert.Equal(t, domain.TopicTransactionRequested, events[0].Topic)
	assert.Equal(t, tx.ID, events[0].AggregateID)

	var req domain.TransactionRequestedEvent
	require.NoError(t, json.Unmarshal(events[0].Payload, &req))
	assert.Equal(t, tx.ID, req.TransactionID)
	assert.Equal(t, int64(3), req.FromAccountVersion)
	assert.True(t, req.Amount.Equal(decimal.RequireFromString("12.5")))
}

func TestTransactionUseCase_CreateTransaction_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.CreateTransactionInput
		wantErr error
	}{
		{
			name:    "same account",
			input:   usecase.CreateTransactionInput{FromAccountNumber: "001", ToAccountNumber: "001", Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrInvalidTransactionData,
		},
		{
			name:    "zero amount",
			input:   usecase.CreateTransactionInput{FromAccountNumber: "001", ToAccountNumber: "002"},
			wantErr: domain.ErrInvalidTransactionData,
		},
		{
			name:    "missing number",
			input:   usecase.CreateTransactionInput{FromAccountNumber: "001", Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrInvalidTransactionData,
		},
		{
			name:    "unknown type",
			input:   usecase.CreateTransactionInput{FromAccountNumber: "001", ToAccountNumber: "002", Amount: decimal.NewFromInt(1), Type: "REFUND"},
			wantErr: domain.ErrInvalidTransactionData,
		},
		{
			name:    "unknown account",
			input:   usecase.CreateTransactionInput{FromAccountNumber: "001", ToAccountNumber: "404", Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "inactive destination",
			input:   usecase.CreateTransactionInput{FromAccountNumber: "001", ToAccountNumber: "003", Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrInvalidTransactionData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTransactionFixture(t, activeReplicas()...)

			_, err := f.uc.CreateTransaction(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.outbox.All())
		})
	}
}

func TestTransactionUseCase_CompleteTransaction(t *testing.T) {
	f := newTransactionFixture(t, activeReplicas()...)
	ctx := context.Background()

	tx, err := f.uc.CreateTransaction(ctx, usecase.CreateTransactionInput{
		FromAccountNumber: "001", ToAccountNumber: "002", Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	meta := domain.EventMeta{EventID: "done-1", Topic: domain.TopicTransactionCompleted}
	event := domain.TransactionCompletedEvent{
		TransactionID: tx.ID,
		Outcome:       domain.TransactionStatusIncorrect,
		Observations:  domain.ObservationInsufficientFunds,
	}

	applied, err := f.uc.CompleteTransaction(ctx, meta, event)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := f.uc.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusIncorrect, got.Status)
	assert.Equal(t, domain.ObservationInsufficientFunds, got.Observations)

	// redelivery of the same event
	applied, err = f.uc.CompleteTransaction(ctx, meta, event)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 1, f.processed.Count())
}

func TestTransactionUseCase_CompleteTransaction_Invalid(t *testing.T) {
	f := newTransactionFixture(t)
	ctx := context.Background()
	meta := domain.EventMeta{EventID: "done-1"}

	_, err := f.uc.CompleteTransaction(ctx, meta, domain.TransactionCompletedEvent{Outcome: domain.TransactionStatusCorrect})
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)

	_, err = f.uc.CompleteTransaction(ctx, meta, domain.TransactionCompletedEvent{TransactionID: "tx", Outcome: domain.TransactionStatusPending})
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionData)

	_, err = f.uc.CompleteTransaction(ctx, meta, domain.TransactionCompletedEvent{TransactionID: "tx", Outcome: domain.TransactionStatusCorrect})
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	assert.Zero(t, f.processed.Count())
}

func TestTransactionUseCase_ListTransactions(t *testing.T) {
	f := newTransactionFixture(t, activeReplicas()...)
	ctx := context.Background()

	var last *domain.Transaction
	for i := 0; i < 3; i++ {
		tx, err := f.uc.CreateTransaction(ctx, usecase.CreateTransactionInput{
			FromAccountNumber: "001", ToAccountNumber: "002", Amount: decimal.NewFromInt(int64(i + 1)),
		})
		require.NoError(t, err)
		last = tx
	}

	list, err := f.uc.ListTransactions(ctx, usecase.ListTransactionsInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, last.ID, list[0].ID)
}
