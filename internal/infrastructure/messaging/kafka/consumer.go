package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
)

// ConsumerConfig holds the reader settings.
type ConsumerConfig struct {
	Brokers        []string      `mapstructure:"brokers"`
	GroupID        string        `mapstructure:"group_id"`
	MinBytes       int           `mapstructure:"min_bytes"`
	MaxBytes       int           `mapstructure:"max_bytes"`
	CommitInterval time.Duration `mapstructure:"commit_interval"`
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// DatasetInvalidator is what a dataset-updated event drives: dropping the
// cached results of the reloaded dataset.  The cached aggregator implements it.
type DatasetInvalidator interface {
	InvalidateDataset(ctx context.Context, datasetID string) error
}

// Consumer tails the dataset-updated topic and invalidates caches.  A bad
// message is logged and skipped; the loop only stops on context cancellation
// or reader closure.
type Consumer struct {
	reader      ReaderInterface
	invalidator DatasetInvalidator
	logger      logging.Logger
}

// NewConsumer creates a group consumer on the dataset-updated topic.
func NewConsumer(cfg ConsumerConfig, invalidator DatasetInvalidator, logger logging.Logger) *Consumer {
	if cfg.GroupID == "" {
		cfg.GroupID = "areascope"
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.CommitInterval == 0 {
		cfg.CommitInterval = time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          TopicDatasetUpdated,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		CommitInterval: cfg.CommitInterval,
	})
	return NewConsumerWithReader(reader, invalidator, logger)
}

// NewConsumerWithReader injects a reader, used by tests.
func NewConsumerWithReader(reader ReaderInterface, invalidator DatasetInvalidator, logger logging.Logger) *Consumer {
	return &Consumer{
		reader:      reader,
		invalidator: invalidator,
		logger:      logger.Named("kafka.consumer"),
	}
}

// Run consumes until ctx is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("dataset-updated consumer started")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.logger.Info("dataset-updated consumer stopped")
				return nil
			}
			return err
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	env, err := ParseEnvelope(msg.Value)
	if err != nil {
		c.logger.Warn("skipping undecodable event",
			logging.String("topic", msg.Topic), logging.Err(err))
		return
	}

	var payload DatasetUpdatedPayload
	if err := env.DecodePayload(&payload); err != nil {
		c.logger.Warn("skipping event with bad payload",
			logging.String("event_id", env.EventID), logging.Err(err))
		return
	}
	if payload.DatasetID == "" {
		c.logger.Warn("skipping dataset-updated event without dataset id",
			logging.String("event_id", env.EventID))
		return
	}

	if err := c.invalidator.InvalidateDataset(ctx, payload.DatasetID); err != nil {
		// Version-bound cache keys mean a failed invalidation degrades to
		// TTL expiry, so log and move on.
		c.logger.Error("dataset cache invalidation failed",
			logging.String("dataset_id", payload.DatasetID), logging.Err(err))
		return
	}
	c.logger.Info("dataset cache invalidated on update event",
		logging.String("dataset_id", payload.DatasetID),
		logging.String("version", payload.Version),
	)
}

// Close stops the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
