// Package analytics consumes completed-search events: an Emitter publishes
// them to Kafka and a Recorder persists them to the audit log. Both are
// fire-and-forget: a full queue or a failing backend drops events and
// never slows a search down.
package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
	"github.com/arjunxplorer/Research-Paper-finder/internal/observability"
)

const (
	// DefaultQueueSize bounds the in-memory event queue.
	DefaultQueueSize = 1024

	// DefaultBatchTimeout is how long the writer waits for a batch to fill.
	DefaultBatchTimeout = 10 * time.Millisecond

	// writeTimeout bounds one delivery attempt to the broker.
	writeTimeout = 5 * time.Second
)

// messageWriter is the subset of kafka.Writer the emitter uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds Kafka emitter settings.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string

	// Topic is the Kafka topic for search events.
	Topic string

	// QueueSize bounds the in-memory event queue.
	QueueSize int

	// BatchTimeout is the maximum time to wait for a batch to fill.
	BatchTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = DefaultBatchTimeout
	}
}

// Emitter publishes SearchEvents to Kafka from a background goroutine.
type Emitter struct {
	writer  messageWriter
	queue   chan domain.SearchEvent
	metrics *observability.Metrics
	logger  zerolog.Logger

	closing  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewEmitter creates an emitter backed by a kafka.Writer and starts its
// delivery goroutine.
func NewEmitter(cfg Config, metrics *observability.Metrics, logger zerolog.Logger) *Emitter {
	cfg.applyDefaults()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return newEmitter(writer, cfg.QueueSize, metrics, logger)
}

func newEmitter(writer messageWriter, queueSize int, metrics *observability.Metrics, logger zerolog.Logger) *Emitter {
	e := &Emitter{
		writer:  writer,
		queue:   make(chan domain.SearchEvent, queueSize),
		metrics: metrics,
		logger:  logger.With().Str("component", "analytics").Logger(),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go e.run()
	return e
}

// Emit enqueues one event for delivery. It never blocks; when the queue
// is full or the emitter is closed the event is dropped and counted.
// Emit is safe to call concurrently with Close.
func (e *Emitter) Emit(event domain.SearchEvent) {
	select {
	case <-e.closing:
		e.record("dropped")
		return
	default:
	}
	select {
	case e.queue <- event:
	default:
		e.record("dropped")
		e.logger.Warn().Msg("analytics queue full, event dropped")
	}
}

// Close stops the delivery goroutine after draining queued events and
// closes the underlying writer.
func (e *Emitter) Close() error {
	e.stopOnce.Do(func() {
		close(e.closing)
		<-e.done
	})
	return e.writer.Close()
}

// run delivers queued events until Close, then drains the queue. The
// queue channel itself is never closed, so a racing Emit cannot panic.
func (e *Emitter) run() {
	defer close(e.done)

	for {
		select {
		case event := <-e.queue:
			e.deliver(event)
		case <-e.closing:
			for {
				select {
				case event := <-e.queue:
					e.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (e *Emitter) deliver(event domain.SearchEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		e.record("failed")
		e.logger.Error().Err(err).Msg("failed to marshal search event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err = e.writer.WriteMessages(ctx, kafka.Message{
		// Keying by query hash keeps one query's events in order.
		Key:   []byte(event.QueryHash),
		Value: payload,
		Time:  event.OccurredAt,
	})
	if err != nil {
		e.record("failed")
		e.logger.Warn().Err(err).Msg("failed to publish search event")
		return
	}
	e.record("sent")
}

func (e *Emitter) record(status string) {
	if e.metrics != nil {
		e.metrics.RecordAnalyticsEvent(status)
	}
}
