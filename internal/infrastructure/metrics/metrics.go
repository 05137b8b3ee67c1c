package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/ledgersaga/internal/domain"
)

const namespace = "ledgersaga"

// Metrics holds all Prometheus metrics. It implements usecase.Metrics.
type Metrics struct {
	// Ledger metrics
	TransfersApplied *prometheus.CounterVec
	TransferDuration prometheus.Histogram

	// Transfer service metrics
	TransactionsCreated   prometheus.Counter
	TransactionsCompleted *prometheus.CounterVec
	ReplicaUpdates        *prometheus.CounterVec

	// Messaging metrics
	DuplicateEvents    *prometheus.CounterVec
	OutboxEvents       *prometheus.CounterVec
	OutboxPassDuration prometheus.Histogram

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	HTTPInFlight  prometheus.Gauge
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransfersApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_applied_total",
				Help:      "Transfer requests applied by the ledger, by outcome",
			},
			[]string{"outcome"},
		),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_apply_duration_seconds",
			Help:      "Duration of applying one transfer request",
			Buckets:   prometheus.DefBuckets,
		}),

		TransactionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_created_total",
			Help:      "Total number of transactions requested",
		}),
		TransactionsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_completed_total",
				Help:      "Transactions moved to a terminal status, by outcome",
			},
			[]string{"outcome"},
		),
		ReplicaUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_replica_updates_total",
				Help:      "Account events replayed into the replica, by result",
			},
			[]string{"result"},
		),

		DuplicateEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicate_events_total",
				Help:      "Inbound events skipped because they were already applied",
			},
			[]string{"topic"},
		),
		OutboxEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_events_total",
				Help:      "Outbox delivery attempts, by topic and result",
			},
			[]string{"topic", "result"},
		),
		OutboxPassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_pass_duration_seconds",
			Help:      "Duration of one outbox publisher pass",
			Buckets:   prometheus.DefBuckets,
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// TransferApplied implements usecase.Metrics.
func (m *Metrics) TransferApplied(outcome domain.TransactionStatus) {
	m.TransfersApplied.WithLabelValues(string(outcome)).Inc()
}

// ObserveTransferDuration implements usecase.Metrics.
func (m *Metrics) ObserveTransferDuration(d time.Duration) {
	m.TransferDuration.Observe(d.Seconds())
}

// TransactionCreated implements usecase.Metrics.
func (m *Metrics) TransactionCreated() {
	m.TransactionsCreated.Inc()
}

// TransactionCompleted implements usecase.Metrics.
func (m *Metrics) TransactionCompleted(outcome domain.TransactionStatus) {
	m.TransactionsCompleted.WithLabelValues(string(outcome)).Inc()
}

// ReplicaUpdated implements usecase.Metrics.
func (m *Metrics) ReplicaUpdated(applied bool) {
	result := "stale"
	if applied {
		result = "applied"
	}
	m.ReplicaUpdates.WithLabelValues(result).Inc()
}

// DuplicateEventSkipped implements usecase.Metrics.
func (m *Metrics) DuplicateEventSkipped(topic string) {
	m.DuplicateEvents.WithLabelValues(topic).Inc()
}

// OutboxSent implements usecase.Metrics.
func (m *Metrics) OutboxSent(topic string) {
	m.OutboxEvents.WithLabelValues(topic, "sent").Inc()
}

// OutboxRequeued implements usecase.Metrics.
func (m *Metrics) OutboxRequeued(topic string) {
	m.OutboxEvents.WithLabelValues(topic, "requeued").Inc()
}

// OutboxFailed implements usecase.Metrics.
func (m *Metrics) OutboxFailed(topic string) {
	m.OutboxEvents.WithLabelValues(topic, "failed").Inc()
}

// ObserveOutboxPass implements usecase.Metrics.
func (m *Metrics) ObserveOutboxPass(d time.Duration) {
	m.OutboxPassDuration.Observe(d.Seconds())
}
