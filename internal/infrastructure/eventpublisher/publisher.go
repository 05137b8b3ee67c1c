package eventpublisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/infrastructure/messaging"
	"github.com/iho/ledgersaga/internal/usecase"
)

// EventPublisher drains the outbox to the event log.
type EventPublisher struct {
	outboxRepo  usecase.OutboxRepository
	producer    messaging.Producer
	metrics     usecase.Metrics
	clock       usecase.Clock
	logger      *slog.Logger
	limiter     *rate.Limiter
	batchSize   int
	interval    time.Duration
	maxAttempts int
	concurrency int
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo  usecase.OutboxRepository
	Producer    messaging.Producer
	Metrics     usecase.Metrics
	Clock       usecase.Clock
	Logger      *slog.Logger
	BatchSize   int           // Number of events to fetch per batch
	Interval    time.Duration // Polling interval
	MaxAttempts int           // Failed sends before an event is FAILED
	Concurrency int           // Aggregates sent in parallel per batch
	RatePerSec  float64       // Send rate limit, 0 disables it
}

// DispatchResult summarizes one pass over the outbox.
type DispatchResult struct {
	Processed         int
	Sent              int
	Requeued          int
	Failed            int
	StateUpdateFailed int
	Deferred          int // left PENDING behind an unsent event of the same aggregate
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = domain.DefaultMaxDeliveryAttempts
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 8
	}
	if cfg.Metrics == nil {
		cfg.Metrics = usecase.NopMetrics()
	}
	if cfg.Clock == nil {
		cfg.Clock = usecase.SystemClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		burst := int(cfg.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}

	return &EventPublisher{
		outboxRepo:  cfg.OutboxRepo,
		producer:    cfg.Producer,
		metrics:     cfg.Metrics,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		limiter:     limiter,
		batchSize:   cfg.BatchSize,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		concurrency: cfg.Concurrency,
	}
}

// Start begins the event publishing worker.
// It runs continuously until the context is cancelled. Passes never overlap.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info("event publisher started",
		slog.Int("batch_size", ep.batchSize),
		slog.Duration("interval", ep.interval),
		slog.Int("max_attempts", ep.maxAttempts))

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	// Process immediately on start
	if _, err := ep.ProcessOnce(ctx); err != nil {
		ep.logger.Error("error processing events on start", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := ep.ProcessOnce(ctx); err != nil {
				ep.logger.Error("error processing events", slog.String("error", err.Error()))
			}
		}
	}
}

// ProcessOnce ships one batch of pending events.
func (ep *EventPublisher) ProcessOnce(ctx context.Context) (DispatchResult, error) {
	var result DispatchResult
	start := ep.clock.Now()

	events, err := ep.outboxRepo.NextPending(ctx, ep.batchSize)
	if err != nil {
		return result, err
	}

	if len(events) == 0 {
		return result, nil
	}

	ep.logger.Debug("processing events", slog.Int("count", len(events)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ep.concurrency)

	for _, group := range groupByAggregate(events) {
		g.Go(func() error {
			for i, event := range group {
				outcome := ep.dispatch(gctx, event)
				mu.Lock()
				result.add(outcome)
				if outcome.halts() {
					result.Deferred += len(group) - i - 1
				}
				mu.Unlock()
				if outcome.halts() {
					break
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	ep.metrics.ObserveOutboxPass(ep.clock.Now().Sub(start))

	if result.Failed > 0 || result.Requeued > 0 {
		ep.logger.Warn("outbox pass finished with failures",
			slog.Int("processed", result.Processed),
			slog.Int("sent", result.Sent),
			slog.Int("requeued", result.Requeued),
			slog.Int("failed", result.Failed),
			slog.Int("state_update_failed", result.StateUpdateFailed),
			slog.Int("deferred", result.Deferred))
	}

	return result, nil
}

type dispatchOutcome int

const (
	outcomeSent dispatchOutcome = iota
	outcomeRequeued
	outcomeFailed
	outcomeMarkFailed
	outcomeRecordFailed
)

// halts reports whether the event was not delivered, so later events of its
// aggregate must wait for the next pass.
func (o dispatchOutcome) halts() bool {
	return o != outcomeSent && o != outcomeMarkFailed
}

// groupByAggregate splits a batch into per-aggregate runs, keeping the
// oldest-first order within each run and the order of first appearance
// across runs.
func groupByAggregate(events []*domain.OutboxEvent) [][]*domain.OutboxEvent {
	index := make(map[string]int, len(events))
	var groups [][]*domain.OutboxEvent
	for _, event := range events {
		i, ok := index[event.AggregateID]
		if !ok {
			i = len(groups)
			index[event.AggregateID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], event)
	}
	return groups
}

func (r *DispatchResult) add(o dispatchOutcome) {
	r.Processed++
	switch o {
	case outcomeSent:
		r.Sent++
	case outcomeRequeued:
		r.Requeued++
	case outcomeFailed:
		r.Failed++
	case outcomeMarkFailed, outcomeRecordFailed:
		r.StateUpdateFailed++
	}
}

func (ep *EventPublisher) dispatch(ctx context.Context, event *domain.OutboxEvent) dispatchOutcome {
	err := ep.send(ctx, event)
	if err == nil {
		// Bookkeeping only: a lost update means a resend the consumer absorbs.
		if err := ep.outboxRepo.MarkSent(ctx, event.ID, ep.clock.Now()); err != nil {
			ep.logger.Error("failed to mark event as sent",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()))
			return outcomeMarkFailed
		}
		ep.metrics.OutboxSent(event.Topic)
		return outcomeSent
	}

	if ctx.Err() != nil {
		// Interrupted by shutdown, the attempt is not counted.
		return outcomeRequeued
	}

	status, attempts, rerr := ep.outboxRepo.RecordFailure(ctx, event.ID, err.Error(), ep.maxAttempts)
	if rerr != nil {
		ep.logger.Error("failed to record send failure",
			slog.String("event_id", event.ID),
			slog.String("send_error", err.Error()),
			slog.String("error", rerr.Error()))
		return outcomeRecordFailed
	}

	if status == domain.OutboxStatusFailed {
		ep.metrics.OutboxFailed(event.Topic)
		ep.logger.Error("outbox event permanently failed",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.EventType),
			slog.String("topic", event.Topic),
			slog.Int("attempts", attempts),
			slog.String("error", err.Error()))
		return outcomeFailed
	}

	ep.metrics.OutboxRequeued(event.Topic)
	ep.logger.Warn("failed to publish event, will retry",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType),
		slog.Int("attempts", attempts),
		slog.String("error", err.Error()))
	return outcomeRequeued
}

func (ep *EventPublisher) send(ctx context.Context, event *domain.OutboxEvent) error {
	if ep.limiter != nil {
		if err := ep.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	if err := ep.producer.Send(ctx, ToMessage(event)); err != nil {
		return err
	}

	ep.logger.Debug("event published",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType),
		slog.String("topic", event.Topic))

	return nil
}

// ToMessage builds the transport message for an outbox event.
func ToMessage(event *domain.OutboxEvent) messaging.Message {
	return messaging.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: map[string]string{
			domain.HeaderEventID:       event.ID,
			domain.HeaderAggregateID:   event.AggregateID,
			domain.HeaderAggregateType: event.AggregateType,
			domain.HeaderEventType:     event.EventType,
			domain.HeaderTimestamp:     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
		Time: event.CreatedAt,
	}
}
