// Package kafka provides the event transport for comparison runs: a
// producer publishing enveloped events, a consumer with retry and
// dead-letter handling, and topic administration.
package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/ClauseLens/internal/config"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// ErrProducerClosed is returned by Publish after Close.
var ErrProducerClosed = errors.New(errors.ErrCodeMessageQueueError, "producer is closed")

// MessageWriter abstracts kafka.Writer so tests can capture writes.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes run lifecycle events. It satisfies the event
// publisher port of the comparison application service.
type Producer struct {
	writer MessageWriter
	source string
	logger logging.Logger
	closed atomic.Bool
}

// NewProducer builds a Producer for the configured brokers. source names
// the publishing process in event envelopes ("apiserver", "worker").
func NewProducer(cfg config.KafkaConfig, source string, logger logging.Logger) *Producer {
	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	// WriteMessages blocks until its batch flushes, so the timeout must
	// stay short for synchronous per-request publishing.
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 50 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr: kafka.TCP(cfg.Brokers...),
		// Hash balancing keeps all events of one run on one partition,
		// so consumers observe them in publish order.
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            retries + 1,
		BatchSize:              batchSize,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		source: source,
		logger: logger.Named("kafka_producer"),
	}
}

// Publish wraps payload in an event envelope and writes it to topic,
// keyed so that events for the same run stay ordered.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if topic == "" {
		return errors.NewValidation("topic is required")
	}

	env, err := NewEnvelope(topic, p.source, payload)
	if err != nil {
		return err
	}
	value, err := env.Encode()
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  env.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(env.EventID)},
			{Key: "source", Value: []byte(env.Source)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, errors.ErrCodeMessageQueueError, "failed to publish to %s", topic)
	}

	p.logger.Debug("event published",
		logging.String("topic", topic),
		logging.String("key", key),
		logging.String("event_id", env.EventID),
	)
	return nil
}

// publishRaw forwards an already-encoded message body, used by the
// consumer to move poisoned messages to a dead-letter topic.
func (p *Producer) publishRaw(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
		Time:  time.Now().UTC(),
	}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, errors.ErrCodeMessageQueueError, "failed to publish to %s", topic)
	}
	return nil
}

// Close flushes and closes the writer. Safe to call more than once.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed")
	return err
}
