package memory

import (
	"context"
	"sort"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
)

// AccountReplicaRepository implements usecase.AccountReplicaRepository.
type AccountReplicaRepository struct {
	store *Store
}

// NewAccountReplicaRepository creates a new AccountReplicaRepository.
func NewAccountReplicaRepository(store *Store) *AccountReplicaRepository {
	return &AccountReplicaRepository{store: store}
}

func (r *AccountReplicaRepository) GetByID(ctx context.Context, id string) (*domain.AccountReplica, error) {
	var (
		rep domain.AccountReplica
		ok  bool
	)
	r.store.read(func(st *state) { rep, ok = st.replicas[id] })
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &rep, nil
}

func (r *AccountReplicaRepository) GetByNumber(ctx context.Context, number string) (*domain.AccountReplica, error) {
	var found *domain.AccountReplica
	r.store.read(func(st *state) {
		for _, rep := range st.replicas {
			if rep.AccountNumber == number {
				cp := rep
				found = &cp
				return
			}
		}
	})
	if found == nil {
		return nil, domain.ErrAccountNotFound
	}
	return found, nil
}

func (r *AccountReplicaRepository) Upsert(ctx context.Context, tx usecase.Transaction, replica *domain.AccountReplica) (bool, error) {
	st, err := workState(tx)
	if err != nil {
		return false, err
	}
	if err := r.store.check(OpReplicaUpsert); err != nil {
		return false, err
	}
	if existing, ok := st.replicas[replica.ID]; ok && existing.Version >= replica.Version {
		return false, nil
	}
	st.replicas[replica.ID] = *replica
	return true, nil
}

func (r *AccountReplicaRepository) List(ctx context.Context, limit, offset int) ([]*domain.AccountReplica, error) {
	var all []*domain.AccountReplica
	r.store.read(func(st *state) {
		for _, rep := range st.replicas {
			cp := rep
			all = append(all, &cp)
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].AccountNumber < all[j].AccountNumber })
	return page(all, limit, offset), nil
}
