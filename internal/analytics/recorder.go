package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// recordTimeout bounds one audit-log insert.
const recordTimeout = 5 * time.Second

// SearchLogStore persists completed-search audit entries.
type SearchLogStore interface {
	Record(ctx context.Context, log *domain.SearchLog) error
}

// Recorder writes each search event to the persistent audit log from a
// background goroutine. Like the Kafka emitter it is fire-and-forget: a
// full queue or a failing insert drops the entry and never slows a
// search down.
type Recorder struct {
	store  SearchLogStore
	queue  chan domain.SearchEvent
	logger zerolog.Logger

	closing  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRecorder creates a recorder backed by the given store and starts
// its delivery goroutine.
func NewRecorder(store SearchLogStore, logger zerolog.Logger) *Recorder {
	r := &Recorder{
		store:   store,
		queue:   make(chan domain.SearchEvent, DefaultQueueSize),
		logger:  logger.With().Str("component", "search_log").Logger(),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Emit enqueues one event for persistence. It never blocks; when the
// queue is full or the recorder is closed the entry is dropped. Emit is
// safe to call concurrently with Close.
func (r *Recorder) Emit(event domain.SearchEvent) {
	select {
	case <-r.closing:
		return
	default:
	}
	select {
	case r.queue <- event:
	default:
		r.logger.Warn().Msg("search log queue full, entry dropped")
	}
}

// Close stops the delivery goroutine after draining queued entries.
func (r *Recorder) Close() error {
	r.stopOnce.Do(func() {
		close(r.closing)
		<-r.done
	})
	return nil
}

// run persists queued events until Close, then drains the queue. The
// queue channel itself is never closed, so a racing Emit cannot panic.
func (r *Recorder) run() {
	defer close(r.done)

	for {
		select {
		case event := <-r.queue:
			r.persist(event)
		case <-r.closing:
			for {
				select {
				case event := <-r.queue:
					r.persist(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) persist(event domain.SearchEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	err := r.store.Record(ctx, &domain.SearchLog{
		QueryHash:   event.QueryHash,
		Mode:        event.Mode,
		ResultCount: event.ResultCount,
		Candidates:  event.Candidates,
		CacheHit:    event.CacheHit,
		LatencyMS:   event.LatencyMS,
		CreatedAt:   event.OccurredAt,
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to record search log entry")
	}
}

// EventSink consumes search events; both Emitter and Recorder satisfy it.
type EventSink interface {
	Emit(event domain.SearchEvent)
}

// Fanout forwards each event to every sink.
type Fanout []EventSink

// Emit implements EventSink.
func (f Fanout) Emit(event domain.SearchEvent) {
	for _, sink := range f {
		sink.Emit(event)
	}
}
