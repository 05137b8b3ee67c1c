package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/ledgersaga/internal/adapter/repository/memory"
	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
	"github.com/iho/ledgersaga/internal/usecase/mocks"
)

type transferFixture struct {
	store     *memory.Store
	accounts  *memory.AccountRepository
	outbox    *memory.OutboxRepository
	processed *memory.ProcessedEventRepository
	uc        *usecase.TransferUseCase
}

func newTransferFixture(t *testing.T, metrics usecase.Metrics, accounts ...domain.Account) transferFixture {
	t.Helper()
	store := memory.NewStore()
	f := transferFixture{
		store:     store,
		accounts:  memory.NewAccountRepository(store),
		outbox:    memory.NewOutboxRepository(store),
		processed: memory.NewProcessedEventRepository(store),
	}
	ids := &seqIDs{prefix: "L"}
	guard := usecase.NewIdempotencyGuard(store, f.processed, discardLogger())
	f.uc = usecase.NewTransferUseCase(guard, f.accounts, usecase.NewOutboxWriter(f.outbox, ids, nil), metrics, nil, discardLogger())

	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	for i := range accounts {
		require.NoError(t, f.accounts.Create(ctx, tx, &accounts[i]))
	}
	require.NoError(t, tx.Commit(ctx))
	return f
}

func ledgerAccounts() []domain.Account {
	return []domain.Account{
		{ID: "x", AccountNumber: "001", OwnerName: "X", Balance: decimal.NewFromInt(100), Status: domain.AccountStatusActive, Version: 2},
		{ID: "y", AccountNumber: "002", OwnerName: "Y", Balance: decimal.NewFromInt(10), Status: domain.AccountStatusActive, Version: 7},
		{ID: "off", AccountNumber: "003", OwnerName: "Off", Balance: decimal.NewFromInt(500), Status: domain.AccountStatusInactive, Version: 1},
	}
}

func TestTransferUseCase_ApplyTransfer(t *testing.T) {
	tests := []struct {
		name         string
		req          domain.TransactionRequestedEvent
		outcome      domain.TransactionStatus
		observations string
		fromBalance  int64
		toBalance    int64
	}{
		{
			name:         "applied",
			req:          domain.TransactionRequestedEvent{FromAccountID: "x", FromAccountVersion: 2, ToAccountID: "y", ToAccountVersion: 7, Amount: decimal.NewFromInt(40)},
			outcome:      domain.TransactionStatusCorrect,
			observations: domain.ObservationApplied,
			fromBalance:  60,
			toBalance:    50,
		},
		{
			name:         "whole balance",
			req:          domain.TransactionRequestedEvent{FromAccountID: "x", FromAccountVersion: 2, ToAccountID: "y", ToAccountVersion: 7, Amount: decimal.NewFromInt(100)},
			outcome:      domain.TransactionStatusCorrect,
			observations: domain.ObservationApplied,
			fromBalance:  0,
			toBalance:    110,
		},
		{
			name:         "stale source",
			req:          domain.TransactionRequestedEvent{FromAccountID: "x", FromAccountVersion: 1, ToAccountID: "y", ToAccountVersion: 7, Amount: decimal.NewFromInt(40)},
			outcome:      domain.TransactionStatusIncorrect,
			observations: domain.ObservationSourceUnavailable,
			fromBalance:  100,
			toBalance:    10,
		},
		{
			name:         "insufficient funds",
			req:          domain.TransactionRequestedEvent{FromAccountID: "x", FromAccountVersion: 2, ToAccountID: "y", ToAccountVersion: 7, Amount: decimal.RequireFromString("100.01")},
			outcome:      domain.TransactionStatusIncorrect,
			observations: domain.ObservationInsufficientFunds,
			fromBalance:  100,
			toBalance:    10,
		},
		{
			name:         "stale destination",
			req:          domain.TransactionRequestedEvent{FromAccountID: "x", FromAccountVersion: 2, ToAccountID: "y", ToAccountVersion: 6, Amount: decimal.NewFromInt(40)},
			outcome:      domain.TransactionStatusIncorrect,
			observations: domain.ObservationTargetUnavailable,
			fromBalance:  100,
			toBalance:    10,
		},
		{
			name:         "inactive source",
			req:          domain.TransactionRequestedEvent{FromAccountID: "off", FromAccountVersion: 1, ToAccountID: "y", ToAccountVersion: 7, Amount: decimal.NewFromInt(40)},
			outcome:      domain.TransactionStatusIncorrect,
			observations: domain.ObservationSourceUnavailable,
			fromBalance:  500,
			toBalance:    10,
		},
		{
			name:         "same account",
			req:          domain.TransactionRequestedEvent{FromAccountID: "x", FromAccountVersion: 2, ToAccountID: "x", ToAccountVersion: 2, Amount: decimal.NewFromInt(1)},
			outcome:      domain.TransactionStatusIncorrect,
			observations: domain.ObservationSameAccount,
			fromBalance:  100,
			toBalance:    100,
		},
		{
			name:         "unknown source",
			req:          domain.TransactionRequestedEvent{FromAccountID: "nobody", ToAccountID: "y", ToAccountVersion: 7, Amount: decimal.NewFromInt(1)},
			outcome:      domain.TransactionStatusFailed,
			observations: domain.ObservationAccountNotFound,
			toBalance:    10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			metrics := mocks.NewMockMetrics(ctrl)
			metrics.EXPECT().TransferApplied(tt.outcome)
			metrics.EXPECT().ObserveTransferDuration(gomock.Any())

			f := newTransferFixture(t, metrics, ledgerAccounts()...)
			ctx := context.Background()
			tt.req.TransactionID = "tx-1"

			res, err := f.uc.ApplyTransfer(ctx, domain.EventMeta{EventID: "evt-1"}, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.observations, res.Observations)
			assert.False(t, res.Duplicate)

			if acc, err := f.accounts.GetByID(ctx, tt.req.FromAccountID); err == nil {
				assert.True(t, acc.Balance.Equal(decimal.NewFromInt(tt.fromBalance)), "from balance %s", acc.Balance)
			}
			to, err := f.accounts.GetByID(ctx, tt.req.ToAccountID)
			require.NoError(t, err)
			assert.True(t, to.Balance.Equal(decimal.NewFromInt(tt.toBalance)), "to balance %s", to.Balance)

			var completions []domain.TransactionCompletedEvent
			updates := 0
			for _, e := range f.outbox.All() {
				switch e.Topic {
				case domain.TopicTransactionCompleted:
					var evt domain.TransactionCompletedEvent
					require.NoError(t, json.Unmarshal(e.Payload, &evt))
					completions = append(completions, evt)
				case domain.TopicAccountUpdated:
					updates++
				}
			}
			require.Len(t, completions, 1)
			assert.Equal(t, tt.outcome, completions[0].Outcome)
			assert.Equal(t, "tx-1", completions[0].TransactionID)
			if tt.outcome == domain.TransactionStatusCorrect {
				assert.Equal(t, 2, updates)
			} else {
				assert.Zero(t, updates)
			}
		})
	}
}

func TestTransferUseCase_ApplyTransfer_VersionBump(t *testing.T) {
	f := newTransferFixture(t, nil, ledgerAccounts()...)
	ctx := context.Background()

	_, err := f.uc.ApplyTransfer(ctx, domain.EventMeta{EventID: "evt-1"}, domain.TransactionRequestedEvent{
		TransactionID: "tx-1", FromAccountID: "x", FromAccountVersion: 2, ToAccountID: "y", ToAccountVersion: 7, Amount: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	x, err := f.accounts.GetByID(ctx, "x")
	require.NoError(t, err)
	y, err := f.accounts.GetByID(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, int64(3), x.Version)
	assert.Equal(t, int64(8), y.Version)

	var snapshot domain.AccountEvent
	for _, e := range f.outbox.All() {
		if e.Topic == domain.TopicAccountUpdated && e.AggregateID == "x" {
			require.NoError(t, json.Unmarshal(e.Payload, &snapshot))
		}
	}
	assert.Equal(t, int64(3), snapshot.Version)
	assert.Equal(t, "001", snapshot.AccountNumber)
	assert.True(t, x.Balance.Equal(decimal.NewFromInt(99)))
}

func TestTransferUseCase_ApplyTransfer_Duplicate(t *testing.T) {
	f := newTransferFixture(t, nil, ledgerAccounts()...)
	ctx := context.Background()
	req := domain.TransactionRequestedEvent{
		TransactionID: "tx-1", FromAccountID: "x", FromAccountVersion: 2, ToAccountID: "y", ToAccountVersion: 7, Amount: decimal.NewFromInt(5),
	}

	_, err := f.uc.ApplyTransfer(ctx, domain.EventMeta{EventID: "evt-1"}, req)
	require.NoError(t, err)
	res, err := f.uc.ApplyTransfer(ctx, domain.EventMeta{EventID: "evt-1"}, req)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Len(t, f.outbox.All(), 3)
}

func TestTransferUseCase_ApplyTransfer_Malformed(t *testing.T) {
	f := newTransferFixture(t, nil)

	_, err := f.uc.ApplyTransfer(context.Background(), domain.EventMeta{EventID: "evt-1"}, domain.TransactionRequestedEvent{
		TransactionID: "tx-1", FromAccountID: "x", ToAccountID: "y", Amount: decimal.NewFromInt(-5),
	})
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
	assert.Zero(t, f.processed.Count())
}

func TestTransferUseCase_FailTransfer(t *testing.T) {
	f := newTransferFixture(t, nil, ledgerAccounts()...)
	ctx := context.Background()
	meta := domain.EventMeta{EventID: "evt-1"}
	req := domain.TransactionRequestedEvent{TransactionID: "tx-1", FromAccountID: "x", ToAccountID: "y", Amount: decimal.NewFromInt(5)}

	require.NoError(t, f.uc.FailTransfer(ctx, meta, req, errors.New("db down")))
	// a second recovery for the same event is absorbed
	require.NoError(t, f.uc.FailTransfer(ctx, meta, req, errors.New("db down")))

	events := f.outbox.All()
	require.Len(t, events, 1)
	var evt domain.TransactionCompletedEvent
	require.NoError(t, json.Unmarshal(events[0].Payload, &evt))
	assert.Equal(t, domain.TransactionStatusFailed, evt.Outcome)
	assert.Equal(t, domain.ObservationProcessingFailed, evt.Observations)

	x, err := f.accounts.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), x.Version)

	assert.ErrorIs(t, f.uc.FailTransfer(ctx, meta, domain.TransactionRequestedEvent{}, nil), domain.ErrMalformedEvent)
}
