package messaging

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBrokerClosed is returned by a closed MemoryBroker.
var ErrBrokerClosed = errors.New("messaging: broker closed")

// MemoryBroker is an in-process, single-partition event log. Consumer groups
// track their own committed offsets. It is used to run both services inside
// one process.
type MemoryBroker struct {
	mu      sync.Mutex
	topics  map[string][]Message
	groups  map[string]int64 // group/topic -> committed offset
	notify  chan struct{}
	sendErr func(Message) error
	closed  bool
}

// NewMemoryBroker creates an empty MemoryBroker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		topics: make(map[string][]Message),
		groups: make(map[string]int64),
		notify: make(chan struct{}),
	}
}

// FailSends makes Send return fn's error for messages where fn is non-nil.
// Pass nil to restore normal operation.
func (b *MemoryBroker) FailSends(fn func(Message) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendErr = fn
}

// Send appends msgs to their topics. Either all messages are appended or
// none.
func (b *MemoryBroker) Send(ctx context.Context, msgs ...Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBrokerClosed
	}
	if b.sendErr != nil {
		for _, m := range msgs {
			if err := b.sendErr(m); err != nil {
				return err
			}
		}
	}

	now := time.Now().UTC()
	for _, m := range msgs {
		stored := m.Clone()
		stored.Partition = 0
		stored.Offset = int64(len(b.topics[m.Topic]))
		if stored.Time.IsZero() {
			stored.Time = now
		}
		b.topics[m.Topic] = append(b.topics[m.Topic], stored)
	}

	close(b.notify)
	b.notify = make(chan struct{})
	return nil
}

// Close implements Producer. Closing the broker wakes all blocked fetches.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.notify)
		b.notify = make(chan struct{})
	}
	return nil
}

// Messages returns a copy of everything written to topic.
func (b *MemoryBroker) Messages(topic string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, 0, len(b.topics[topic]))
	for _, m := range b.topics[topic] {
		out = append(out, m.Clone())
	}
	return out
}

// Committed returns the committed offset of group on topic.
func (b *MemoryBroker) Committed(group, topic string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.groups[group+"/"+topic]
}

// Subscribe returns a Source reading topic as a member of group. Fetching
// starts at the group's committed offset.
func (b *MemoryBroker) Subscribe(group, topic string) *MemorySource {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &MemorySource{broker: b, group: group, topic: topic, next: b.groups[group+"/"+topic]}
}

// MemorySource is a MemoryBroker consumer group member.
type MemorySource struct {
	broker *MemoryBroker
	group  string
	topic  string
	next   int64
}

// Fetch blocks until a message past the last fetched one is available.
func (s *MemorySource) Fetch(ctx context.Context) (Message, error) {
	for {
		b := s.broker
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return Message{}, ErrBrokerClosed
		}
		log := b.topics[s.topic]
		if s.next < int64(len(log)) {
			msg := log[s.next].Clone()
			s.next++
			b.mu.Unlock()
			return msg, nil
		}
		wait := b.notify
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-wait:
		}
	}
}

// Commit marks msg and everything before it as consumed by the group.
func (s *MemorySource) Commit(ctx context.Context, msg Message) error {
	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	key := s.group + "/" + s.topic
	if msg.Offset+1 > b.groups[key] {
		b.groups[key] = msg.Offset + 1
	}
	return nil
}

// Rewind moves the fetch position back to the group's committed offset, as a
// rebalance after a crash would.
func (s *MemorySource) Rewind() {
	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()
	s.next = b.groups[s.group+"/"+s.topic]
}

// Close implements Source.
func (s *MemorySource) Close() error { return nil }
