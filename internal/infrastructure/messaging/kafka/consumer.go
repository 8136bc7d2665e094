package kafka

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/ClauseLens/internal/config"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// ErrAlreadyRunning is returned by Start when the consumer loop is live.
var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// maxRetryBackoff caps the exponential backoff between handler retries.
const maxRetryBackoff = 30 * time.Second

// Message is one consumed record, decoupled from the kafka-go type so
// handlers stay mockable.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Time      time.Time
}

// Handler processes one message. A nil return commits the offset; an
// error triggers retries and eventually the dead-letter topic.
type Handler func(ctx context.Context, msg Message) error

// MessageReader abstracts kafka.Reader so tests can script deliveries.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerOptions tune one consumer instance. Zero values select
// conservative defaults.
type ConsumerOptions struct {
	// Topics lists the group subscriptions.
	Topics []string
	// QueueDepth sizes the reader's internal prefetch buffer.
	QueueDepth int
	// MaxRetries is the number of handler re-attempts after the first
	// failure.
	MaxRetries int
	// RetryBackoff is the initial delay between attempts; it doubles per
	// attempt up to maxRetryBackoff.
	RetryBackoff time.Duration
	// CommitOnErrors commits messages that could not be dead-lettered
	// instead of leaving them for redelivery.
	CommitOnErrors bool
	// DeadLetterSuffix is appended to the source topic to name its
	// dead-letter topic.
	DeadLetterSuffix string
}

// Consumer runs a fetch-process-commit loop over the subscribed topics.
// Failed messages are retried with backoff and then moved to the
// dead-letter topic through the shared producer. The producer is owned
// by the caller and not closed here.
type Consumer struct {
	reader MessageReader
	dlq    *Producer
	opts   ConsumerOptions
	logger logging.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewConsumer builds a Consumer in the configured group. dlq may be nil
// to disable dead-lettering.
func NewConsumer(cfg config.KafkaConfig, opts ConsumerOptions, dlq *Producer, logger logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.NewValidation("kafka brokers are required")
	}
	if cfg.GroupID == "" {
		return nil, errors.NewValidation("kafka group id is required")
	}
	if len(opts.Topics) == 0 {
		return nil, errors.NewValidation("at least one topic is required")
	}
	if opts.MaxRetries < 0 {
		return nil, errors.Newf(errors.ErrCodeValidation, "max retries must be >= 0, got %d", opts.MaxRetries)
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.DeadLetterSuffix == "" {
		opts.DeadLetterSuffix = ".dlq"
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}
	queueDepth := opts.QueueDepth
	if queueDepth <= 0 {
		queueDepth = 100
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    opts.Topics,
		QueueCapacity:  queueDepth,
		MinBytes:       1,
		MaxBytes:       10 << 20,
		MaxWait:        500 * time.Millisecond,
		StartOffset:    startOffset,
		CommitInterval: cfg.CommitInterval,
	})

	return &Consumer{
		reader:   reader,
		dlq:      dlq,
		opts:     opts,
		logger:   logger.Named("kafka_consumer"),
		handlers: make(map[string]Handler),
	}, nil
}

// Subscribe registers the handler for a topic. Messages on topics
// without a handler are committed and dropped.
func (c *Consumer) Subscribe(topic string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
}

// Start launches the consume loop. It returns immediately; processing
// stops when ctx is cancelled or Close is called.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("consumer started", logging.Strings("topics", c.opts.Topics))
	return nil
}

// Close stops the loop and releases the reader. Safe to call more than
// once.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	c.cancel()
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("consumer closed")
	return err
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || err == io.EOF {
				return
			}
			c.logger.Error("failed to fetch message", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if c.handleMessage(ctx, m) {
			if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
				c.logger.Error("failed to commit offset",
					logging.String("topic", m.Topic),
					logging.Int64("offset", m.Offset),
					logging.Err(err))
			}
		}
	}
}

// handleMessage reports whether the message's offset should be
// committed.
func (c *Consumer) handleMessage(ctx context.Context, m kafka.Message) bool {
	c.mu.RLock()
	handler, ok := c.handlers[m.Topic]
	c.mu.RUnlock()
	if !ok {
		c.logger.Warn("no handler for topic, dropping message",
			logging.String("topic", m.Topic))
		return true
	}

	err := c.processWithRetry(ctx, toMessage(m), handler)
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		// Shutdown mid-processing: leave the offset uncommitted so the
		// message is redelivered.
		return false
	}

	c.logger.Error("message processing exhausted retries",
		logging.String("topic", m.Topic),
		logging.Int64("offset", m.Offset),
		logging.Int("retries", c.opts.MaxRetries),
		logging.Err(err))

	if c.dlq != nil {
		dlqTopic := m.Topic + c.opts.DeadLetterSuffix
		headers := map[string]string{
			"original_topic": m.Topic,
			"error":          err.Error(),
		}
		if derr := c.dlq.publishRaw(ctx, dlqTopic, m.Key, m.Value, headers); derr != nil {
			c.logger.Error("failed to dead-letter message",
				logging.String("topic", dlqTopic), logging.Err(derr))
			return c.opts.CommitOnErrors
		}
		c.logger.Warn("message dead-lettered",
			logging.String("topic", dlqTopic),
			logging.Int64("offset", m.Offset))
		return true
	}
	return c.opts.CommitOnErrors
}

func (c *Consumer) processWithRetry(ctx context.Context, msg Message, handler Handler) error {
	err := handler(ctx, msg)
	if err == nil {
		return nil
	}

	backoff := c.opts.RetryBackoff
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		c.logger.Warn("retrying message",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Int("attempt", attempt),
			logging.Err(err))

		if err = handler(ctx, msg); err == nil {
			return nil
		}

		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
	return err
}

func toMessage(m kafka.Message) Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Headers:   headers,
		Time:      m.Time,
	}
}
