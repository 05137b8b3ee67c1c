package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgersaga/internal/usecase"
)

// AccountReplicaRepository implements usecase.AccountReplicaRepository.
type AccountReplicaRepository struct {
	queries *generated.Queries
}

// NewAccountReplicaRepository creates a new AccountReplicaRepository.
func NewAccountReplicaRepository(db generated.DBTX) *AccountReplicaRepository {
	return &AccountReplicaRepository{queries: generated.New(db)}
}

// GetByID retrieves a replica by account ID.
func (r *AccountReplicaRepository) GetByID(ctx context.Context, id string) (*domain.AccountReplica, error) {
	return replicaFrom(r.queries.GetAccountReplicaByID(ctx, id))
}

// GetByNumber retrieves a replica by account number.
func (r *AccountReplicaRepository) GetByNumber(ctx context.Context, number string) (*domain.AccountReplica, error) {
	return replicaFrom(r.queries.GetAccountReplicaByNumber(ctx, number))
}

// Upsert writes replica unless the stored copy is at the same or a newer
// version.
func (r *AccountReplicaRepository) Upsert(ctx context.Context, tx usecase.Transaction, replica *domain.AccountReplica) (bool, error) {
	q, err := queriesIn(tx)
	if err != nil {
		return false, err
	}

	n, err := q.UpsertAccountReplica(ctx, generated.UpsertAccountReplicaParams{
		ID:            replica.ID,
		AccountNumber: replica.AccountNumber,
		Status:        string(replica.Status),
		Version:       replica.Version,
		UpdatedAt:     timeToPgTimestamptz(replica.UpdatedAt),
	})
	if pgErrorCode(err) == pgErrUniqueViolation {
		return false, domain.ErrDuplicateAccount
	}
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// List lists replicas ordered by account number.
func (r *AccountReplicaRepository) List(ctx context.Context, limit, offset int) ([]*domain.AccountReplica, error) {
	rows, err := r.queries.ListAccountReplicas(ctx, generated.ListAccountReplicasParams{
		Limit:  clampInt32(limit),
		Offset: clampInt32(offset),
	})
	if err != nil {
		return nil, err
	}

	replicas := make([]*domain.AccountReplica, 0, len(rows))
	for _, row := range rows {
		replicas = append(replicas, rowToReplica(row))
	}
	return replicas, nil
}

func replicaFrom(row generated.AccountReplica, err error) (*domain.AccountReplica, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return rowToReplica(row), nil
}

func rowToReplica(row generated.AccountReplica) *domain.AccountReplica {
	return &domain.AccountReplica{
		ID:            row.ID,
		AccountNumber: row.AccountNumber,
		Status:        domain.AccountStatus(row.Status),
		Version:       row.Version,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}
