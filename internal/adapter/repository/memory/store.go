// Package memory is an in-process, transactional implementation of the
// repositories. Transactions are serialized and work on a private copy of the
// committed state that replaces it on commit, so a rolled back transaction
// leaves no trace.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
)

// Operation names passed to a FaultFunc.
const (
	OpAccountCreate        = "account.create"
	OpAccountUpdateBalance = "account.update_balance"
	OpAccountUpdateStatus  = "account.update_status"
	OpReplicaUpsert        = "replica.upsert"
	OpTransactionCreate    = "transaction.create"
	OpTransactionComplete  = "transaction.complete"
	OpOutboxAppend         = "outbox.append"
	OpProcessedInsert      = "processed.insert"
	OpCommit               = "commit"
)

var errTxDone = errors.New("memory: transaction already closed")

// FaultFunc is consulted before every write. A non-nil error aborts the write.
type FaultFunc func(op string) error

type state struct {
	accounts     map[string]domain.Account
	replicas     map[string]domain.AccountReplica
	transactions map[string]domain.Transaction
	outbox       map[string]domain.OutboxEvent
	outboxSeq    map[string]int64
	processed    map[string]domain.ProcessedEvent
	seq          int64
}

func newState() *state {
	return &state{
		accounts:     make(map[string]domain.Account),
		replicas:     make(map[string]domain.AccountReplica),
		transactions: make(map[string]domain.Transaction),
		outbox:       make(map[string]domain.OutboxEvent),
		outboxSeq:    make(map[string]int64),
		processed:    make(map[string]domain.ProcessedEvent),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.replicas {
		c.replicas[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	for k, v := range s.outboxSeq {
		c.outboxSeq[k] = v
	}
	for k, v := range s.processed {
		c.processed[k] = v
	}
	c.seq = s.seq
	return c
}

// Store holds committed state and hands out transactions.
type Store struct {
	// writeMu serializes writers: transactions hold it from Begin until
	// Commit or Rollback.
	writeMu sync.Mutex
	mu      sync.RWMutex
	data    *state
	fault   FaultFunc
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{data: newState()}
}

// SetFault installs fn as the fault injector. Pass nil to clear it.
func (s *Store) SetFault(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

func (s *Store) check(op string) error {
	s.mu.RLock()
	fn := s.fault
	s.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(op)
}

// read runs fn against committed state.
func (s *Store) read(fn func(*state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// write runs fn against committed state outside any transaction.
func (s *Store) write(fn func(*state) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Begin implements usecase.TransactionManager.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.writeMu.Lock()
	s.mu.RLock()
	work := s.data.clone()
	s.mu.RUnlock()
	return &Tx{store: s, work: work}, nil
}

// Tx is a Store transaction.
type Tx struct {
	store *Store
	work  *state
	done  bool
}

// Commit publishes the transaction's state.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	defer t.store.writeMu.Unlock()

	if err := t.store.check(OpCommit); err != nil {
		return err
	}

	t.store.mu.Lock()
	t.store.data = t.work
	t.store.mu.Unlock()
	return nil
}

// Rollback discards the transaction. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.writeMu.Unlock()
	return nil
}

func workState(tx usecase.Transaction) (*state, error) {
	t, ok := tx.(*Tx)
	if !ok || t.done {
		return nil, errTxDone
	}
	return t.work, nil
}
