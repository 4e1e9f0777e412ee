package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Message headers set on every relayed event
const (
	HeaderEventType     = "event_type"
	HeaderEventID       = "event_id"
	HeaderTenantID      = "tenant_id"
	HeaderAggregateType = "aggregate_type"
)

// KafkaWriter is the subset of *kafka.Writer the sink needs
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSinkConfig configures the broker connection
type KafkaSinkConfig struct {
	Brokers      []string
	Topic        string
	ClientID     string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// KafkaSink publishes outbox entries to a Kafka topic, keyed by aggregate so
// the events of one contract stay ordered within a partition
type KafkaSink struct {
	writer KafkaWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaSink builds a sink backed by a kafka-go writer
func NewKafkaSink(cfg KafkaSinkConfig, logger *zap.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 100 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireAll,
		Transport: &kafka.Transport{
			ClientID:    cfg.ClientID,
			DialTimeout: 10 * time.Second,
		},
	}
	return NewKafkaSinkWithWriter(writer, cfg.Topic, logger), nil
}

// NewKafkaSinkWithWriter wraps an existing writer
func NewKafkaSinkWithWriter(writer KafkaWriter, topic string, logger *zap.Logger) *KafkaSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaSink{writer: writer, topic: topic, logger: logger}
}

// Name returns "kafka"
func (s *KafkaSink) Name() string { return "kafka" }

// Deliver writes the entry payload as one message
func (s *KafkaSink) Deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	msg := kafka.Message{
		Key:   []byte(entry.AggregateID.String()),
		Value: entry.Payload,
		Time:  entry.CreatedAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(entry.EventType)},
			{Key: HeaderEventID, Value: []byte(entry.EventID.String())},
			{Key: HeaderTenantID, Value: []byte(entry.TenantID.String())},
			{Key: HeaderAggregateType, Value: []byte(entry.AggregateType)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", s.topic, err)
	}
	s.logger.Debug("event published to kafka",
		zap.String("topic", s.topic),
		zap.String("event_type", entry.EventType),
		zap.String("event_id", entry.EventID.String()),
	)
	return nil
}

// Close flushes and closes the writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
