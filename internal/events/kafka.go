package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/noah-isme/boutique-pos/internal/resilience"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events to a Kafka topic keyed by aggregate id, so every
// event of one sale lands on the same partition.
type KafkaSink struct {
	writer messageWriter
	guard  resilience.Guard
	logger zerolog.Logger
}

// KafkaConfig configures a KafkaSink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Logger  *zerolog.Logger
	Guard   *resilience.Guard
}

// NewKafkaSink constructs a sink writing to cfg.Topic.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("events: kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("events: kafka topic is required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaSink(writer, cfg), nil
}

func newKafkaSink(writer messageWriter, cfg KafkaConfig) *KafkaSink {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "kafka_sink").Logger()
	}
	guard := resilience.Guard{
		Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("kafka").WithLogger(logger),
		MaxAttempts: 3,
		BaseBackoff: 50 * time.Millisecond,
		Jitter:      0.2,
		Timeout:     2 * time.Second,
	}
	if cfg.Guard != nil {
		guard = *cfg.Guard
	}
	return &KafkaSink{writer: writer, guard: guard, logger: logger}
}

// Write implements Sink.
func (k *KafkaSink) Write(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "topic", Value: []byte(event.Topic)},
		},
	}
	err = k.guard.Do(ctx, func(ctx context.Context) error {
		return k.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		k.logger.Error().Err(err).Str("event_id", event.ID).Str("topic", event.Topic).Msg("publish event failed")
		return err
	}
	k.logger.Debug().Str("event_id", event.ID).Str("aggregate_id", event.AggregateID).Msg("event published")
	return nil
}

// Close flushes pending messages and releases the writer.
func (k *KafkaSink) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
