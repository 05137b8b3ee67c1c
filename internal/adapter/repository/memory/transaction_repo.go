package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	st, err := workState(tx)
	if err != nil {
		return err
	}
	if err := r.store.check(OpTransactionCreate); err != nil {
		return err
	}
	st.transactions[transaction.ID] = *transaction
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var (
		t  domain.Transaction
		ok bool
	)
	r.store.read(func(st *state) { t, ok = st.transactions[id] })
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &t, nil
}

func (r *TransactionRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	st, err := workState(tx)
	if err != nil {
		return nil, err
	}
	t, ok := st.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return &t, nil
}

func (r *TransactionRepository) Complete(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, observations string, updatedAt time.Time) (bool, error) {
	st, err := workState(tx)
	if err != nil {
		return false, err
	}
	if err := r.store.check(OpTransactionComplete); err != nil {
		return false, err
	}
	t, ok := st.transactions[id]
	if !ok || t.Status != domain.TransactionStatusPending {
		return false, nil
	}
	t.Status = status
	t.Observations = observations
	t.UpdatedAt = updatedAt
	st.transactions[id] = t
	return true, nil
}

func (r *TransactionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	var all []*domain.Transaction
	r.store.read(func(st *state) {
		for _, t := range st.transactions {
			cp := t
			all = append(all, &cp)
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return page(all, limit, offset), nil
}
