package config_test

import (
	"testing"
	"time"

	"github.com/iho/ledgersaga/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SERVICE", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.Service != config.ServiceLedger || cfg.KafkaGroupID != "ledger-service" {
		t.Fatalf("expected ledger defaults, got service=%s group=%s", cfg.Service, cfg.KafkaGroupID)
	}

	if cfg.MigrationsPath != "migrations/ledger" {
		t.Fatalf("expected ledger migrations, got %s", cfg.MigrationsPath)
	}

	if cfg.OutboxMaxAttempts != 5 || cfg.ConsumerMaxRetries != 3 || cfg.DLTSuffix != ".DLT" {
		t.Fatalf("unexpected delivery defaults: attempts=%d retries=%d suffix=%s",
			cfg.OutboxMaxAttempts, cfg.ConsumerMaxRetries, cfg.DLTSuffix)
	}

	if cfg.RedisTimeout != 2*time.Second || cfg.RedisPoolSize != 0 {
		t.Fatalf("unexpected redis defaults: timeout=%s pool=%d", cfg.RedisTimeout, cfg.RedisPoolSize)
	}

	if cfg.ProcessedEventRetention != 30*24*time.Hour {
		t.Fatalf("expected 30 day processed retention, got %s", cfg.ProcessedEventRetention)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVICE", "transfer")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KAFKA_GROUP_ID", "custom")
	t.Setenv("OUTBOX_INTERVAL", "250ms")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("expected two brokers, got %v", cfg.KafkaBrokers)
	}

	if cfg.KafkaGroupID != "custom" || cfg.MigrationsPath != "migrations/transfer" {
		t.Fatalf("unexpected derived settings: group=%s migrations=%s", cfg.KafkaGroupID, cfg.MigrationsPath)
	}

	if cfg.OutboxInterval != 250*time.Millisecond {
		t.Fatalf("expected outbox interval override, got %s", cfg.OutboxInterval)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsUnknownService(t *testing.T) {
	t.Setenv("SERVICE", "billing")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for unknown service")
	}
}

func TestLoadRejectsZeroAttempts(t *testing.T) {
	t.Setenv("OUTBOX_MAX_ATTEMPTS", "0")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for zero outbox attempts")
	}
}
