package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgersaga/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Create inserts a transaction within tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	q, err := queriesIn(tx)
	if err != nil {
		return err
	}

	return q.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:                 t.ID,
		FromAccountID:      t.FromAccountID,
		ToAccountID:        t.ToAccountID,
		Amount:             decimalToNumeric(t.Amount),
		Type:               string(t.Type),
		Description:        t.Description,
		Status:             string(t.Status),
		Observations:       t.Observations,
		FromAccountVersion: t.FromAccountVersion,
		ToAccountVersion:   t.ToAccountVersion,
		CreatedAt:          timeToPgTimestamptz(t.CreatedAt),
		UpdatedAt:          timeToPgTimestamptz(t.UpdatedAt),
	})
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return transactionFrom(r.queries.GetTransactionByID(ctx, id))
}

// GetByIDTx retrieves a transaction by ID within tx.
func (r *TransactionRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	q, err := queriesIn(tx)
	if err != nil {
		return nil, err
	}
	return transactionFrom(q.GetTransactionByID(ctx, id))
}

// Complete moves a PENDING transaction into a terminal status.
func (r *TransactionRepository) Complete(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, observations string, updatedAt time.Time) (bool, error) {
	q, err := queriesIn(tx)
	if err != nil {
		return false, err
	}

	n, err := q.CompleteTransaction(ctx, generated.CompleteTransactionParams{
		ID:           id,
		Status:       string(status),
		Observations: observations,
		UpdatedAt:    timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List lists transactions, newest first.
func (r *TransactionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, generated.ListTransactionsParams{
		Limit:  clampInt32(limit),
		Offset: clampInt32(offset),
	})
	if err != nil {
		return nil, err
	}

	transactions := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, rowToTransaction(row))
	}
	return transactions, nil
}

func transactionFrom(row generated.Transaction, err error) (*domain.Transaction, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return rowToTransaction(row), nil
}

func rowToTransaction(row generated.Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:                 row.ID,
		FromAccountID:      row.FromAccountID,
		ToAccountID:        row.ToAccountID,
		Amount:             numericToDecimal(row.Amount),
		Type:               domain.TransactionType(row.Type),
		Description:        row.Description,
		Status:             domain.TransactionStatus(row.Status),
		Observations:       row.Observations,
		FromAccountVersion: row.FromAccountVersion,
		ToAccountVersion:   row.ToAccountVersion,
		CreatedAt:          row.CreatedAt.Time,
		UpdatedAt:          row.UpdatedAt.Time,
	}
}
