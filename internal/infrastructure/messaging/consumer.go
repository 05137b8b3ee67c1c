package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Dead-letter headers added to the original message headers.
const (
	HeaderOriginalTopic     = "X-Original-Topic"
	HeaderOriginalPartition = "X-Original-Partition"
	HeaderOriginalOffset    = "X-Original-Offset"
	HeaderExceptionMessage  = "X-Exception-Message"
	HeaderFailureKind       = "X-Failure-Kind"
)

// Failure kinds recorded on dead-lettered messages.
const (
	FailureNonRetryable = "non-retryable"
	FailureExhausted    = "retries-exhausted"
)

// DefaultDLTSuffix is appended to a topic name to get its dead-letter topic.
const DefaultDLTSuffix = ".DLT"

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	Source     Source
	Handler    Handler
	DeadLetter Producer
	Classifier RetryClassifier
	Recoverer  Recoverer
	Logger     zerolog.Logger

	RetryBackoff time.Duration // delay between attempts
	MaxRetries   int           // attempts after the first one
	DLTSuffix    string
}

// Consumer pulls messages from a Source, hands them to a Handler with bounded
// constant-backoff retries, and commits the offset only after the handler
// succeeded or the message was dead-lettered.
type Consumer struct {
	source     Source
	handler    Handler
	deadLetter Producer
	classifier RetryClassifier
	recoverer  Recoverer
	logger     zerolog.Logger

	retryBackoff time.Duration
	maxRetries   int
	dltSuffix    string
}

// NewConsumer creates a new Consumer.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.DLTSuffix == "" {
		cfg.DLTSuffix = DefaultDLTSuffix
	}
	if cfg.Classifier == nil {
		cfg.Classifier = RetryClassifierFunc(nil)
	}

	return &Consumer{
		source:       cfg.Source,
		handler:      cfg.Handler,
		deadLetter:   cfg.DeadLetter,
		classifier:   cfg.Classifier,
		recoverer:    cfg.Recoverer,
		logger:       cfg.Logger,
		retryBackoff: cfg.RetryBackoff,
		maxRetries:   cfg.MaxRetries,
		dltSuffix:    cfg.DLTSuffix,
	}
}

// Run consumes until ctx is cancelled or an offset cannot be committed safely.
// It returns nil on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.Process(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.source.Commit(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offset %s/%d/%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
		}
	}
}

// Process handles msg. A nil return means the offset may be committed: the
// handler succeeded or the message went to the dead-letter topic.
func (c *Consumer) Process(ctx context.Context, msg Message) error {
	err := c.handle(ctx, msg)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	kind := FailureExhausted
	if c.classifier.IsNonRetryable(err) {
		kind = FailureNonRetryable
	}

	log := c.logger.With().
		Str("topic", msg.Topic).
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("failure_kind", kind).
		Logger()

	if kind == FailureExhausted && c.recoverer != nil {
		if rerr := c.recoverer.Recover(ctx, msg, err); rerr != nil {
			log.Error().Err(rerr).Msg("recovery hook failed")
		}
	}

	if dlErr := c.sendToDeadLetter(ctx, msg, err, kind); dlErr != nil {
		log.Error().Err(dlErr).AnErr("cause", err).Msg("dead-letter publish failed, offset not committed")
		return fmt.Errorf("dead-letter %s/%d/%d: %w", msg.Topic, msg.Partition, msg.Offset, dlErr)
	}

	log.Error().Err(err).Str("dlt", msg.Topic+c.dltSuffix).Msg("message dead-lettered")
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg Message) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryBackoff), uint64(c.maxRetries)),
		ctx,
	)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			return nil
		}
		if c.classifier.IsNonRetryable(err) {
			return backoff.Permanent(err)
		}

		c.logger.Warn().
			Err(err).
			Str("topic", msg.Topic).
			Int64("offset", msg.Offset).
			Int("attempt", attempt).
			Msg("message handling failed")
		return err
	}, policy)
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg Message, cause error, kind string) error {
	if c.deadLetter == nil {
		return errors.New("no dead-letter producer configured")
	}

	dl := msg.Clone()
	dl.Topic = msg.Topic + c.dltSuffix
	dl.Partition = 0
	dl.Offset = 0
	if dl.Headers == nil {
		dl.Headers = make(map[string]string, 5)
	}
	dl.Headers[HeaderOriginalTopic] = msg.Topic
	dl.Headers[HeaderOriginalPartition] = strconv.Itoa(msg.Partition)
	dl.Headers[HeaderOriginalOffset] = strconv.FormatInt(msg.Offset, 10)
	dl.Headers[HeaderExceptionMessage] = cause.Error()
	dl.Headers[HeaderFailureKind] = kind

	return c.deadLetter.Send(ctx, dl)
}
