package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgersaga/internal/domain"
)

var accountColumns = []string{"id", "account_number", "owner_name", "balance", "status", "version", "created_at", "updated_at"}

func TestAccountRepository_Create(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{name: "ok"},
		{name: "duplicate number", dbErr: &pgconn.PgError{Code: pgErrUniqueViolation}, wantErr: domain.ErrDuplicateAccount},
		{name: "negative balance", dbErr: &pgconn.PgError{Code: pgErrCheckViolation}, wantErr: domain.ErrInvalidAccountData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newMockPool(t)
			tx := beginTx(t, pool)
			repo := NewAccountRepository(pool)

			exp := pool.ExpectExec("INSERT INTO accounts").
				WithArgs("acc-1", "001", "Ada", pgxmock.AnyArg(), "ACTIVE", int64(0), pgxmock.AnyArg(), pgxmock.AnyArg())
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err := repo.Create(context.Background(), tx, &domain.Account{
				ID:            "acc-1",
				AccountNumber: "001",
				OwnerName:     "Ada",
				Balance:       decimal.NewFromInt(10),
				Status:        domain.AccountStatusActive,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assertExpectations(t, pool)
		})
	}
}

func TestAccountRepository_GetByID(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAccountRepository(pool)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	pool.ExpectQuery("FROM accounts").WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow("acc-1", "001", "Ada", "12.50", "ACTIVE", int64(4), now, now))

	acc, err := repo.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "001", acc.AccountNumber)
	assert.Equal(t, int64(4), acc.Version)
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("12.5")), "balance %s", acc.Balance)

	pool.ExpectQuery("FROM accounts").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	assertExpectations(t, pool)
}

func TestAccountRepository_UpdateBalance(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("bumps version", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectQuery("UPDATE accounts").
			WithArgs("acc-1", pgxmock.AnyArg(), int64(3), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(int64(4)))

		version, err := NewAccountRepository(pool).UpdateBalance(context.Background(), tx, "acc-1", decimal.NewFromInt(5), 3, now)
		require.NoError(t, err)
		assert.Equal(t, int64(4), version)
		assertExpectations(t, pool)
	})

	t.Run("version moved", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectQuery("UPDATE accounts").
			WithArgs("acc-1", pgxmock.AnyArg(), int64(3), pgxmock.AnyArg()).
			WillReturnError(pgx.ErrNoRows)
		pool.ExpectQuery("FROM accounts").WithArgs("acc-1").
			WillReturnRows(pgxmock.NewRows(accountColumns).AddRow("acc-1", "001", "Ada", "5", "ACTIVE", int64(9), now, now))

		_, err := NewAccountRepository(pool).UpdateBalance(context.Background(), tx, "acc-1", decimal.NewFromInt(5), 3, now)
		assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
		assertExpectations(t, pool)
	})

	t.Run("row gone", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectQuery("UPDATE accounts").
			WithArgs("acc-1", pgxmock.AnyArg(), int64(3), pgxmock.AnyArg()).
			WillReturnError(pgx.ErrNoRows)
		pool.ExpectQuery("FROM accounts").WithArgs("acc-1").WillReturnError(pgx.ErrNoRows)

		_, err := NewAccountRepository(pool).UpdateBalance(context.Background(), tx, "acc-1", decimal.NewFromInt(5), 3, now)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		assertExpectations(t, pool)
	})

	t.Run("negative balance", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectQuery("UPDATE accounts").
			WithArgs("acc-1", pgxmock.AnyArg(), int64(3), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgErrCheckViolation})

		_, err := NewAccountRepository(pool).UpdateBalance(context.Background(), tx, "acc-1", decimal.NewFromInt(-1), 3, now)
		assert.ErrorIs(t, err, domain.ErrNegativeBalance)
		assertExpectations(t, pool)
	})

	t.Run("storage error", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		boom := errors.New("connection reset")
		pool.ExpectQuery("UPDATE accounts").
			WithArgs("acc-1", pgxmock.AnyArg(), int64(3), pgxmock.AnyArg()).
			WillReturnError(boom)

		_, err := NewAccountRepository(pool).UpdateBalance(context.Background(), tx, "acc-1", decimal.NewFromInt(1), 3, now)
		assert.ErrorIs(t, err, boom)
		assertExpectations(t, pool)
	})
}

func TestAccountRepository_List(t *testing.T) {
	pool := newMockPool(t)
	now := time.Now()

	pool.ExpectQuery("FROM accounts").WithArgs(int32(2), int32(0)).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("a", "001", "Ada", "1", "ACTIVE", int64(0), now, now).
			AddRow("b", "002", "Bob", "2", "INACTIVE", int64(1), now, now))

	accounts, err := NewAccountRepository(pool).List(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, domain.AccountStatusInactive, accounts[1].Status)
	assertExpectations(t, pool)
}
