package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"
)

// TopicSpec describes a topic to create.
type TopicSpec struct {
	Name              string
	Partitions        int
	ReplicationFactor int
}

// TopicsWithDeadLetters returns specs for topics plus one dead-letter topic
// per topic, named topic+suffix.
func TopicsWithDeadLetters(topics []string, suffix string, partitions, replication int) []TopicSpec {
	specs := make([]TopicSpec, 0, len(topics)*2)
	for _, t := range topics {
		specs = append(specs,
			TopicSpec{Name: t, Partitions: partitions, ReplicationFactor: replication},
			TopicSpec{Name: t + suffix, Partitions: 1, ReplicationFactor: replication},
		)
	}
	return specs
}

// EnsureTopics creates missing topics through the cluster controller.
// Existing topics are left untouched.
func EnsureTopics(ctx context.Context, brokers []string, specs []TopicSpec) error {
	if len(brokers) == 0 {
		return errors.New("kafka: no brokers configured")
	}

	conn, err := kafkago.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}

	ctrl, err := kafkago.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer ctrl.Close()

	configs := make([]kafkago.TopicConfig, 0, len(specs))
	for _, s := range specs {
		configs = append(configs, kafkago.TopicConfig{
			Topic:             s.Name,
			NumPartitions:     s.Partitions,
			ReplicationFactor: s.ReplicationFactor,
		})
	}

	if err := ctrl.CreateTopics(configs...); err != nil && !errors.Is(err, kafkago.TopicAlreadyExists) {
		return fmt.Errorf("create topics: %w", err)
	}
	return nil
}

// Ping dials the first reachable broker. It backs the readiness probe.
func Ping(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errors.New("kafka: no brokers configured")
	}

	var lastErr error
	for _, b := range brokers {
		conn, err := kafkago.DialContext(ctx, "tcp", b)
		if err != nil {
			lastErr = err
			continue
		}
		conn.Close()
		return nil
	}
	return fmt.Errorf("kafka: no broker reachable: %w", lastErr)
}
