package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Handler func(ctx context.Context, e Event) error

func NewReader(brokers []string, groupID, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})
}

// Route dispatches by event type. Unknown types are ignored.
func Route(handlers map[string]Handler) Handler {
	return func(ctx context.Context, e Event) error {
		h, ok := handlers[e.Type]
		if !ok {
			return nil
		}
		return h(ctx, e)
	}
}

type Consumer struct {
	reader  Reader
	handler Handler
	log     *slog.Logger
	backoff time.Duration
}

func NewConsumer(r Reader, h Handler, l *slog.Logger) *Consumer {
	if l == nil {
		l = slog.Default()
	}
	return &Consumer{reader: r, handler: h, log: l, backoff: time.Second}
}

// Run processes messages until ctx is cancelled or the reader is closed.
// A message is committed after its handler ran, failed handlers included,
// so one poison message cannot stall the partition.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			c.log.Error("consumer_fetch_error", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		var e Event
		if err := json.Unmarshal(m.Value, &e); err != nil {
			c.log.Warn("consumer_malformed_message", "topic", m.Topic, "offset", m.Offset, "error", err)
		} else if err := c.handler(ctx, e); err != nil {
			c.log.Error("consumer_handler_error", "topic", m.Topic, "type", e.Type, "offset", m.Offset, "error", err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("consumer_commit_error", "topic", m.Topic, "offset", m.Offset, "error", err)
		}
	}
}
