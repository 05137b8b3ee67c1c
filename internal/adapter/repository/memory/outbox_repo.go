package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

func (r *OutboxRepository) Append(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	st, err := workState(tx)
	if err != nil {
		return err
	}
	if err := r.store.check(OpOutboxAppend); err != nil {
		return err
	}
	cp := *event
	cp.Payload = append([]byte(nil), event.Payload...)
	st.seq++
	st.outbox[event.ID] = cp
	st.outboxSeq[event.ID] = st.seq
	return nil
}

func (r *OutboxRepository) NextPending(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return r.ListByStatus(ctx, domain.OutboxStatusPending, limit)
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	return r.store.write(func(st *state) error {
		e, ok := st.outbox[id]
		if !ok {
			return domain.ErrOutboxEventNotFound
		}
		if e.Status == domain.OutboxStatusSent {
			return nil
		}
		e.Status = domain.OutboxStatusSent
		at := sentAt
		e.SentAt = &at
		st.outbox[id] = e
		return nil
	})
}

func (r *OutboxRepository) RecordFailure(ctx context.Context, id, reason string, maxAttempts int) (domain.OutboxStatus, int, error) {
	var (
		status   domain.OutboxStatus
		attempts int
	)
	err := r.store.write(func(st *state) error {
		e, ok := st.outbox[id]
		if !ok {
			return domain.ErrOutboxEventNotFound
		}
		if e.Status == domain.OutboxStatusPending {
			e.Attempts++
			e.LastError = reason
			e.Status = domain.StatusAfterFailure(e.Attempts, maxAttempts)
			st.outbox[id] = e
		}
		status, attempts = e.Status, e.Attempts
		return nil
	})
	return status, attempts, err
}

func (r *OutboxRepository) ListByStatus(ctx context.Context, status domain.OutboxStatus, limit int) ([]*domain.OutboxEvent, error) {
	type row struct {
		event *domain.OutboxEvent
		seq   int64
	}
	var rows []row
	r.store.read(func(st *state) {
		for id, e := range st.outbox {
			if e.Status != status {
				continue
			}
			cp := e
			rows = append(rows, row{event: &cp, seq: st.outboxSeq[id]})
		}
	})
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].event.CreatedAt.Equal(rows[j].event.CreatedAt) {
			return rows[i].seq < rows[j].seq
		}
		return rows[i].event.CreatedAt.Before(rows[j].event.CreatedAt)
	})
	events := make([]*domain.OutboxEvent, 0, len(rows))
	for _, rw := range rows {
		events = append(events, rw.event)
	}
	return page(events, limit, 0), nil
}

// Get returns a single outbox event. Test helper.
func (r *OutboxRepository) Get(id string) (*domain.OutboxEvent, bool) {
	var (
		e  domain.OutboxEvent
		ok bool
	)
	r.store.read(func(st *state) { e, ok = st.outbox[id] })
	if !ok {
		return nil, false
	}
	return &e, true
}

// All returns every outbox event in append order. Test helper.
func (r *OutboxRepository) All() []*domain.OutboxEvent {
	type row struct {
		event *domain.OutboxEvent
		seq   int64
	}
	var rows []row
	r.store.read(func(st *state) {
		for id, e := range st.outbox {
			cp := e
			rows = append(rows, row{event: &cp, seq: st.outboxSeq[id]})
		}
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]*domain.OutboxEvent, 0, len(rows))
	for _, rw := range rows {
		out = append(out, rw.event)
	}
	return out
}

func (r *OutboxRepository) Requeue(ctx context.Context, id string) error {
	return r.store.write(func(st *state) error {
		e, ok := st.outbox[id]
		if !ok {
			return domain.ErrOutboxEventNotFound
		}
		if e.Status != domain.OutboxStatusFailed {
			return domain.ErrOutboxNotRequeuable
		}
		e.Status = domain.OutboxStatusPending
		e.Attempts = 0
		st.outbox[id] = e
		return nil
	})
}

func (r *OutboxRepository) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.store.write(func(st *state) error {
		for id, e := range st.outbox {
			if e.Status == domain.OutboxStatusSent && e.SentAt != nil && e.SentAt.Before(before) {
				delete(st.outbox, id)
				delete(st.outboxSeq, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
