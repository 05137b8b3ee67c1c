package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/ledgersaga/internal/adapter/consumer"
	httpAdapter "github.com/iho/ledgersaga/internal/adapter/http"
	"github.com/iho/ledgersaga/internal/adapter/http/handler"
	"github.com/iho/ledgersaga/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/ledgersaga/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/ledgersaga/internal/adapter/repository/redis"
	"github.com/iho/ledgersaga/internal/infrastructure/config"
	"github.com/iho/ledgersaga/internal/infrastructure/eventpublisher"
	"github.com/iho/ledgersaga/internal/infrastructure/kafka"
	"github.com/iho/ledgersaga/internal/infrastructure/logger"
	"github.com/iho/ledgersaga/internal/infrastructure/logging"
	"github.com/iho/ledgersaga/internal/infrastructure/messaging"
	"github.com/iho/ledgersaga/internal/infrastructure/metrics"
	"github.com/iho/ledgersaga/internal/infrastructure/postgres"
	"github.com/iho/ledgersaga/internal/infrastructure/redis"
	"github.com/iho/ledgersaga/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Format: "console"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: cfg.Service})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped with error")
	}
	log.Info().Msg("service stopped")
}

// deps are the shared pieces both service roles are built from.
type deps struct {
	pool    *pgxpool.Pool
	txMgr   *postgresRepo.TxManager
	guard   *usecase.IdempotencyGuard
	ids     usecase.IDGenerator
	metrics *metrics.Metrics
	slog    *slog.Logger
	log     zerolog.Logger
}

// binding attaches a handler to one consumed topic.
type binding struct {
	topic     string
	handler   messaging.Handler
	recoverer messaging.Recoverer
}

// service is what a role contributes on top of the shared runtime.
type service struct {
	routes   httpAdapter.RouterConfig
	outbox   usecase.OutboxRepository
	outboxUC *usecase.OutboxUseCase
	bindings []binding
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	slogger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat).With(slog.String("service", cfg.Service))

	if cfg.MigrateOnStart {
		version, err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info().Str("path", cfg.MigrationsPath).Uint("version", version).Msg("migrations applied")
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		ConnectTimeout:  cfg.DatabaseTimeout,
		ApplicationName: cfg.Service,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, redis.Config{
			URL:      cfg.RedisURL,
			Timeout:  cfg.RedisTimeout,
			PoolSize: cfg.RedisPoolSize,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	txMgr := postgresRepo.NewTxManager(pool)
	guard := usecase.NewIdempotencyGuard(txMgr, postgresRepo.NewProcessedEventRepository(pool), slogger).
		WithRetrier(postgresRepo.NewRetrier(postgresRepo.WithRetrierLogger(slogger))).
		WithMetrics(m)
	if redisClient != nil {
		guard = guard.WithCache(redisRepo.NewProcessedEventCache(redisClient, cfg.Service, cfg.ProcessedTTL))
	}

	d := deps{
		pool:    pool,
		txMgr:   txMgr,
		guard:   guard,
		ids:     postgresRepo.NewULIDGenerator(),
		metrics: m,
		slog:    slogger,
		log:     log,
	}

	var svc *service
	switch cfg.Service {
	case config.ServiceLedger:
		svc = buildLedger(d)
	case config.ServiceTransfer:
		svc = buildTransfer(d)
	default:
		return fmt.Errorf("unknown service %q", cfg.Service)
	}

	if cfg.KafkaCreateTopics {
		specs := kafka.TopicsWithDeadLetters(consumedTopics(svc.bindings), cfg.DLTSuffix, cfg.KafkaTopicPartitions, cfg.KafkaReplicationFactor)
		if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers, specs); err != nil {
			return fmt.Errorf("ensure topics: %w", err)
		}
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.KafkaBrokers})
	defer producer.Close()

	consumers, readers := buildConsumers(cfg, svc.bindings, producer, log)
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo:  svc.outbox,
		Producer:    producer,
		Metrics:     m,
		Logger:      slogger,
		BatchSize:   cfg.OutboxBatchSize,
		Interval:    cfg.OutboxInterval,
		MaxAttempts: cfg.OutboxMaxAttempts,
		Concurrency: cfg.OutboxConcurrency,
		RatePerSec:  cfg.OutboxRatePerSec,
	})
	janitor := eventpublisher.NewJanitor(svc.outboxUC, usecase.RetentionPolicy{
		SentOutbox:      cfg.SentOutboxRetention,
		ProcessedEvents: cfg.ProcessedEventRetention,
	}, cfg.RetentionInterval, slogger)

	routes := svc.routes
	routes.OutboxHandler = handler.NewOutboxHandler(svc.outboxUC)
	routes.HealthHandler = handler.NewHealthHandler().
		WithCheck("postgres", pool.Ping).
		WithCheck("kafka", func(ctx context.Context) error { return kafka.Ping(ctx, cfg.KafkaBrokers) })
	if redisClient != nil {
		routes.HealthHandler.WithCheck("redis", func(ctx context.Context) error { return redis.Ping(ctx, redisClient, 0) })
		routes.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		routes.IdempotencyTTL = cfg.IdempotencyTTL
	}
	routes.Logger = log
	routes.Metrics = m
	routes.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	if cfg.RateLimitPerSec > 0 {
		routes.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst, m.RateLimitHits)
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpAdapter.NewRouter(routes),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return ignoreCanceled(publisher.Start(gctx)) })
	g.Go(func() error { return ignoreCanceled(janitor.Start(gctx)) })
	g.Go(func() error { return messaging.RunAll(gctx, consumers...) })
	if routes.RateLimiter != nil {
		g.Go(func() error { return sweepLimiters(gctx, routes.RateLimiter) })
	}

	return g.Wait()
}

// buildConsumers starts ConsumerConcurrency group members per topic. Members
// of one group split the topic's partitions between them.
func buildConsumers(cfg *config.Config, bindings []binding, dlt messaging.Producer, log zerolog.Logger) ([]*messaging.Consumer, []*kafka.Reader) {
	var (
		consumers []*messaging.Consumer
		readers   []*kafka.Reader
	)
	for _, b := range bindings {
		for i := 0; i < cfg.ConsumerConcurrency; i++ {
			reader := kafka.NewReader(kafka.ReaderConfig{
				Brokers: cfg.KafkaBrokers,
				GroupID: cfg.KafkaGroupID,
				Topic:   b.topic,
			})
			readers = append(readers, reader)
			consumers = append(consumers, messaging.NewConsumer(messaging.ConsumerConfig{
				Source:       reader,
				Handler:      b.handler,
				DeadLetter:   dlt,
				Classifier:   consumer.Classifier,
				Recoverer:    b.recoverer,
				Logger:       log.With().Str("topic", b.topic).Int("member", i).Logger(),
				RetryBackoff: cfg.ConsumerRetryBackoff,
				MaxRetries:   cfg.ConsumerMaxRetries,
				DLTSuffix:    cfg.DLTSuffix,
			}))
		}
	}
	return consumers, readers
}

func consumedTopics(bindings []binding) []string {
	topics := make([]string, 0, len(bindings))
	for _, b := range bindings {
		topics = append(topics, b.topic)
	}
	return topics
}

func sweepLimiters(ctx context.Context, rl *middleware.RateLimiter) error {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.CleanupLimiters(time.Hour)
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
