package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgersaga/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{queries: generated.New(db)}
}

// Create inserts a new account within tx.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	q, err := queriesIn(tx)
	if err != nil {
		return err
	}

	err = q.CreateAccount(ctx, generated.CreateAccountParams{
		ID:            account.ID,
		AccountNumber: account.AccountNumber,
		OwnerName:     account.OwnerName,
		Balance:       decimalToNumeric(account.Balance),
		Status:        string(account.Status),
		Version:       account.Version,
		CreatedAt:     timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:     timeToPgTimestamptz(account.UpdatedAt),
	})
	switch pgErrorCode(err) {
	case "":
		return err
	case pgErrUniqueViolation:
		return domain.ErrDuplicateAccount
	case pgErrCheckViolation:
		return fmt.Errorf("%w: %v", domain.ErrInvalidAccountData, err)
	default:
		return err
	}
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return accountFrom(r.queries.GetAccountByID(ctx, id))
}

// GetByIDTx retrieves an account by ID within tx.
func (r *AccountRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	q, err := queriesIn(tx)
	if err != nil {
		return nil, err
	}
	return accountFrom(q.GetAccountByID(ctx, id))
}

// GetByNumber retrieves an account by its account number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return accountFrom(r.queries.GetAccountByNumber(ctx, number))
}

// UpdateBalance sets balance if the row is still at expectedVersion.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) (int64, error) {
	q, err := queriesIn(tx)
	if err != nil {
		return 0, err
	}

	version, err := q.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		Version:   expectedVersion,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if pgErrorCode(err) == pgErrCheckViolation {
		return 0, domain.ErrNegativeBalance
	}
	return r.casResult(ctx, q, id, version, err)
}

// UpdateStatus sets status if the row is still at expectedVersion.
func (r *AccountRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.AccountStatus, expectedVersion int64, updatedAt time.Time) (int64, error) {
	q, err := queriesIn(tx)
	if err != nil {
		return 0, err
	}

	version, err := q.UpdateAccountStatus(ctx, generated.UpdateAccountStatusParams{
		ID:        id,
		Status:    string(status),
		Version:   expectedVersion,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	return r.casResult(ctx, q, id, version, err)
}

// casResult tells a missing row apart from a version mismatch when a
// version-guarded update matched nothing.
func (r *AccountRepository) casResult(ctx context.Context, q *generated.Queries, id string, version int64, err error) (int64, error) {
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	if _, lookupErr := q.GetAccountByID(ctx, id); lookupErr != nil {
		if errors.Is(lookupErr, pgx.ErrNoRows) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, lookupErr
	}
	return 0, domain.ErrConcurrentUpdate
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  clampInt32(limit),
		Offset: clampInt32(offset),
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

func accountFrom(row generated.Account, err error) (*domain.Account, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return rowToAccount(row), nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:            row.ID,
		AccountNumber: row.AccountNumber,
		OwnerName:     row.OwnerName,
		Balance:       numericToDecimal(row.Balance),
		Status:        domain.AccountStatus(row.Status),
		Version:       row.Version,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}
