package kafka

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/iho/ledgersaga/internal/infrastructure/messaging"
)

// ReaderConfig configures a Reader.
type ReaderConfig struct {
	Brokers []string
	GroupID string
	Topic   string
	MaxWait time.Duration
}

// Reader is a consumer group member on one topic. Offsets are committed
// synchronously and only through Commit.
type Reader struct {
	reader *kafkago.Reader
}

// NewReader creates a new Reader.
func NewReader(cfg ReaderConfig) *Reader {
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 500 * time.Millisecond
	}

	return &Reader{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:        cfg.Brokers,
			GroupID:        cfg.GroupID,
			Topic:          cfg.Topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			MaxWait:        cfg.MaxWait,
			StartOffset:    kafkago.FirstOffset,
			CommitInterval: 0,
		}),
	}
}

// Fetch blocks until the next message is available.
func (r *Reader) Fetch(ctx context.Context) (messaging.Message, error) {
	m, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return messaging.Message{}, err
	}
	return fromKafka(m), nil
}

// Commit commits the offset of msg for the group.
func (r *Reader) Commit(ctx context.Context, msg messaging.Message) error {
	return r.reader.CommitMessages(ctx, kafkago.Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	})
}

// Close leaves the group and closes the connection.
func (r *Reader) Close() error {
	return r.reader.Close()
}
