package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/ledgersaga/internal/domain"
	"github.com/iho/ledgersaga/internal/infrastructure/config"
	"github.com/iho/ledgersaga/internal/infrastructure/messaging"
	"github.com/iho/ledgersaga/internal/infrastructure/metrics"
)

func testDeps() deps {
	return deps{
		metrics: metrics.New(prometheus.NewRegistry()),
		slog:    slog.Default(),
		log:     zerolog.Nop(),
	}
}

func TestBuildLedger(t *testing.T) {
	svc := buildLedger(testDeps())

	if svc.routes.AccountHandler == nil {
		t.Fatal("expected account routes on the ledger")
	}
	if svc.routes.TransactionHandler != nil || svc.routes.ReplicaHandler != nil {
		t.Fatal("ledger must not expose transfer routes")
	}

	topics := consumedTopics(svc.bindings)
	if len(topics) != 1 || topics[0] != domain.TopicTransactionRequested {
		t.Fatalf("unexpected ledger topics %v", topics)
	}
	if svc.bindings[0].recoverer == nil {
		t.Fatal("expected transfer requests to have a recovery hook")
	}
}

func TestBuildTransfer(t *testing.T) {
	svc := buildTransfer(testDeps())

	if svc.routes.TransactionHandler == nil || svc.routes.ReplicaHandler == nil {
		t.Fatal("expected transaction and replica routes")
	}
	if svc.routes.AccountHandler != nil {
		t.Fatal("transfer service must not expose account writes")
	}

	want := map[string]bool{
		domain.TopicTransactionCompleted: true,
		domain.TopicAccountCreated:       true,
		domain.TopicAccountUpdated:       true,
	}
	topics := consumedTopics(svc.bindings)
	if len(topics) != len(want) {
		t.Fatalf("unexpected transfer topics %v", topics)
	}
	for _, topic := range topics {
		if !want[topic] {
			t.Fatalf("unexpected topic %s", topic)
		}
	}
}

func TestBuildConsumers(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers:         []string{"127.0.0.1:1"},
		KafkaGroupID:         "transfer-service",
		ConsumerConcurrency:  2,
		ConsumerRetryBackoff: time.Millisecond,
		DLTSuffix:            ".DLT",
	}
	noop := messaging.HandlerFunc(func(ctx context.Context, msg messaging.Message) error { return nil })
	bindings := []binding{
		{topic: domain.TopicAccountCreated, handler: noop},
		{topic: domain.TopicAccountUpdated, handler: noop},
	}

	consumers, readers := buildConsumers(cfg, bindings, messaging.NewMemoryBroker(), zerolog.Nop())
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	if len(consumers) != 4 || len(readers) != 4 {
		t.Fatalf("expected 4 consumers and readers, got %d and %d", len(consumers), len(readers))
	}
}

func TestIgnoreCanceled(t *testing.T) {
	if err := ignoreCanceled(context.Canceled); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	boom := errors.New("boom")
	if err := ignoreCanceled(boom); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
