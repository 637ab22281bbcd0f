package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
	"github.com/areascope/areascope/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "producer closed")

// ProducerConfig holds the writer settings.
type ProducerConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Acks         string        `mapstructure:"acks"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes event envelopes, keyed by dataset so events of one
// dataset stay ordered within a partition.
type Producer struct {
	writer WriterInterface
	source string
	logger logging.Logger
	closed atomic.Bool
	sent   atomic.Int64
	failed atomic.Int64
}

// NewProducer creates a producer for the given brokers.
func NewProducer(cfg ProducerConfig, source string, logger logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	var acks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		acks = kafka.RequireNone
	case "all":
		acks = kafka.RequireAll
	default:
		acks = kafka.RequireOne
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: acks,
	}
	return NewProducerWithWriter(writer, source, logger), nil
}

// NewProducerWithWriter injects a writer, used by tests.
func NewProducerWithWriter(writer WriterInterface, source string, logger logging.Logger) *Producer {
	return &Producer{
		writer: writer,
		source: source,
		logger: logger.Named("kafka.producer"),
	}
}

// Publish wraps payload in an envelope and writes it to topic under key.
func (p *Producer) Publish(ctx context.Context, topic, key string, eventType string, payload interface{}) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	env, err := NewEventEnvelope(eventType, p.source, payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  env.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "source_service", Value: []byte(env.Source)},
			{Key: "schema_version", Value: []byte(env.SchemaVersion)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		return errors.Wrap(err, errors.ErrCodeInternal, "publish failed")
	}
	p.sent.Add(1)

	p.logger.Debug("Message published",
		logging.String("topic", topic),
		logging.String("event_type", eventType),
	)
	return nil
}

// PublishAggregationComputed emits telemetry for a cache-miss computation.
// Failures are logged, not returned: telemetry must never fail a request.
func (p *Producer) PublishAggregationComputed(ctx context.Context, payload AggregationComputedPayload) {
	if err := p.Publish(ctx, TopicAggregationComputed, payload.DatasetID, TopicAggregationComputed, payload); err != nil {
		p.logger.Warn("failed to publish aggregation telemetry", logging.Err(err))
	}
}

// ComputationNotifier adapts the producer to the cached aggregator's
// notification port.
type ComputationNotifier struct {
	producer *Producer
}

func NewComputationNotifier(p *Producer) *ComputationNotifier {
	return &ComputationNotifier{producer: p}
}

func (n *ComputationNotifier) AggregationComputed(ctx context.Context, datasetID, geometryFingerprint string, sourceCount int, method string) {
	n.producer.PublishAggregationComputed(ctx, AggregationComputedPayload{
		DatasetID:           datasetID,
		GeometryFingerprint: geometryFingerprint,
		SourceCount:         sourceCount,
		Method:              method,
		ComputedAt:          time.Now().UTC(),
	})
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}
