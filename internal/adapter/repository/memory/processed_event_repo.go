package memory

import (
	"context"
	"time"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/usecase"
)

// ProcessedEventRepository implements usecase.ProcessedEventRepository.
type ProcessedEventRepository struct {
	store *Store
}

// NewProcessedEventRepository creates a new ProcessedEventRepository.
func NewProcessedEventRepository(store *Store) *ProcessedEventRepository {
	return &ProcessedEventRepository{store: store}
}

func (r *ProcessedEventRepository) Exists(ctx context.Context, tx usecase.Transaction, eventID string) (bool, error) {
	st, err := workState(tx)
	if err != nil {
		return false, err
	}
	_, ok := st.processed[eventID]
	return ok, nil
}

func (r *ProcessedEventRepository) Insert(ctx context.Context, tx usecase.Transaction, event *domain.ProcessedEvent) error {
	st, err := workState(tx)
	if err != nil {
		return err
	}
	if err := r.store.check(OpProcessedInsert); err != nil {
		return err
	}
	if _, ok := st.processed[event.EventID]; ok {
		return domain.ErrDuplicateEvent
	}
	st.processed[event.EventID] = *event
	return nil
}

func (r *ProcessedEventRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.store.write(func(st *state) error {
		for id, e := range st.processed {
			if e.ProcessedAt.Before(before) {
				delete(st.processed, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// Count returns the number of recorded events. Test helper.
func (r *ProcessedEventRepository) Count() int {
	var n int
	r.store.read(func(st *state) { n = len(st.processed) })
	return n
}
