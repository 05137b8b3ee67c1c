package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	st, err := workState(tx)
	if err != nil {
		return err
	}
	if err := r.store.check(OpAccountCreate); err != nil {
		return err
	}
	for _, existing := range st.accounts {
		if existing.AccountNumber == account.AccountNumber {
			return domain.ErrDuplicateAccount
		}
	}
	st.accounts[account.ID] = *account
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var (
		acc domain.Account
		ok  bool
	)
	r.store.read(func(st *state) { acc, ok = st.accounts[id] })
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &acc, nil
}

func (r *AccountRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	st, err := workState(tx)
	if err != nil {
		return nil, err
	}
	acc, ok := st.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &acc, nil
}

func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	var found *domain.Account
	r.store.read(func(st *state) {
		for _, acc := range st.accounts {
			if acc.AccountNumber == number {
				a := acc
				found = &a
				return
			}
		}
	})
	if found == nil {
		return nil, domain.ErrAccountNotFound
	}
	return found, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) (int64, error) {
	return r.update(tx, OpAccountUpdateBalance, id, expectedVersion, func(acc *domain.Account) {
		acc.Balance = balance
		acc.UpdatedAt = updatedAt
	})
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.AccountStatus, expectedVersion int64, updatedAt time.Time) (int64, error) {
	return r.update(tx, OpAccountUpdateStatus, id, expectedVersion, func(acc *domain.Account) {
		acc.Status = status
		acc.UpdatedAt = updatedAt
	})
}

func (r *AccountRepository) update(tx usecase.Transaction, op, id string, expectedVersion int64, mutate func(*domain.Account)) (int64, error) {
	st, err := workState(tx)
	if err != nil {
		return 0, err
	}
	if err := r.store.check(op); err != nil {
		return 0, err
	}
	acc, ok := st.accounts[id]
	if !ok || acc.Version != expectedVersion {
		return 0, domain.ErrConcurrentUpdate
	}
	mutate(&acc)
	if acc.Balance.IsNegative() {
		return 0, domain.ErrNegativeBalance
	}
	acc.Version++
	st.accounts[id] = acc
	return acc.Version, nil
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	var all []*domain.Account
	r.store.read(func(st *state) {
		for _, acc := range st.accounts {
			a := acc
			all = append(all, &a)
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return page(all, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
