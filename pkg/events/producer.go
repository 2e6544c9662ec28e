package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}
	return &Producer{writer: w}, nil
}

func (p *Producer) Publish(ctx context.Context, topic, key string, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// NewPublisher returns a kafka producer, or a Nop publisher when no brokers are set.
func NewPublisher(brokers []string, l *slog.Logger) (Publisher, error) {
	if len(brokers) == 0 {
		l.Warn("kafka brokers not configured, events are dropped")
		return Nop{Logger: l}, nil
	}
	return NewProducer(brokers)
}

type Nop struct {
	Logger *slog.Logger
}

func (n Nop) Publish(_ context.Context, topic, _ string, e Event) error {
	if n.Logger != nil {
		n.Logger.Debug("event_dropped", "topic", topic, "type", e.Type)
	}
	return nil
}

func (Nop) Close() error { return nil }

type Published struct {
	Topic string
	Key   string
	Event Event
}

// Memory keeps published events in memory.
type Memory struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

func (m *Memory) Publish(_ context.Context, topic, key string, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, Published{Topic: topic, Key: key, Event: e})
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Events() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Published, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Memory) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, p := range m.events {
		out = append(out, p.Event.Type)
	}
	return out
}
