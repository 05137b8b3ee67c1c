// Package kafka adapts segmentio/kafka-go to the messaging interfaces.
package kafka

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/iho/ledgersaga/internal/infrastructure/messaging"
)

// ProducerConfig configures a Producer.
type ProducerConfig struct {
	Brokers      []string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// Producer writes messages to Kafka. Messages are keyed by aggregate id so
// all events of one aggregate land on the same partition, in the order they
// are handed to Send.
type Producer struct {
	writer *kafkago.Writer
}

// NewProducer creates a new Producer.
func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	return &Producer{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(cfg.Brokers...),
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireAll,
			BatchTimeout:           cfg.BatchTimeout,
			WriteTimeout:           cfg.WriteTimeout,
			AllowAutoTopicCreation: false,
		},
	}
}

// Send writes msgs and waits for acknowledgement from all in-sync replicas.
func (p *Producer) Send(ctx context.Context, msgs ...messaging.Message) error {
	out := make([]kafkago.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toKafka(m))
	}
	return p.writer.WriteMessages(ctx, out...)
}

// Close flushes pending writes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func toKafka(m messaging.Message) kafkago.Message {
	headers := make([]kafkago.Header, 0, len(m.Headers))
	for k, v := range m.Headers {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
	}
	return kafkago.Message{
		Topic:   m.Topic,
		Key:     m.Key,
		Value:   m.Value,
		Headers: headers,
		Time:    m.Time,
	}
}

func fromKafka(m kafkago.Message) messaging.Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return messaging.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Headers:   headers,
		Time:      m.Time,
	}
}
