// Package consumer provides a Kafka consumer-group loop with explicit commit
// semantics: a record is committed only after its handler returns nil, so a
// crash or a retryable failure replays the record.
package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"docaudit/internal/platform/config"
)

// Message is one consumed Kafka record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// Handler processes one message. Returning nil commits the record; returning
// an error stops the loop without committing, and the record is redelivered
// when consumption resumes.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer runs a consumer group over a single topic.
type Consumer struct {
	client  *kgo.Client
	topic   string
	handler Handler
	logger  *slog.Logger
}

// Option configures optional Consumer dependencies.
type Option func(*Consumer)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// New connects a consumer group to the configured brokers.
func New(cfg config.Kafka, handler Handler, opts ...Option) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, err
	}

	c := &Consumer{
		client:  client,
		topic:   cfg.Topic,
		handler: handler,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (c *Consumer) EnsureTopic(ctx context.Context, partitions int32) error {
	adm := kadm.NewClient(c.client)
	resps, err := adm.CreateTopics(ctx, partitions, 1, nil, c.topic)
	if err != nil {
		return err
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return resp.Err
		}
	}
	return nil
}

// Run polls until ctx is canceled or a handler reports a retryable failure.
// Records within a poll are handled in order; each success is committed
// before the next record is handled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, fetchErr := range fetches.Errors() {
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", fetchErr.Topic,
				"partition", fetchErr.Partition,
				"error", fetchErr.Err,
			)
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			rec := iter.Next()
			msg := &Message{
				Topic:     rec.Topic,
				Partition: rec.Partition,
				Offset:    rec.Offset,
				Key:       rec.Key,
				Value:     rec.Value,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				// Leave the record uncommitted; the caller decides when to
				// resume, and consumption restarts from the last commit.
				return err
			}
			if err := c.client.CommitRecords(ctx, rec); err != nil {
				return err
			}
		}
	}
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}
