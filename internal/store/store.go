package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/observability"
	"github.com/roach88/turtle/internal/turtle"
)

// ErrNilEvent is returned by Append when ev is nil.
var ErrNilEvent = errors.New("nil event")

// EventStore is the append-only per-turtle event log with synchronous
// fan-out to subscribers.
//
// Thread-safety model:
//   - Append/Clear: serialized per turtle id, concurrent across ids
//   - Records/Events/Get: safe from any goroutine
//   - Subscribe/Unsubscribe: safe from any goroutine, including from
//     inside a handler
type EventStore struct {
	log                Log
	logger             *slog.Logger
	unsubscribeOnPanic bool

	locksMu sync.Mutex
	locks   map[turtle.ID]*sync.Mutex

	subsMu sync.RWMutex
	subs   []*Subscription
	nextID uint64
}

// Option configures an EventStore.
type Option func(*EventStore)

// WithLogger sets the logger used for subscriber failures.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *EventStore) {
		s.logger = l
	}
}

// WithUnsubscribeOnPanic controls whether a subscriber that panics is
// removed. Default: true.
func WithUnsubscribeOnPanic(enabled bool) Option {
	return func(s *EventStore) {
		s.unsubscribeOnPanic = enabled
	}
}

// New creates an EventStore over log.
func New(log Log, opts ...Option) *EventStore {
	s := &EventStore{
		log:                log,
		logger:             slog.Default(),
		unsubscribeOnPanic: true,
		locks:              make(map[turtle.ID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemory is shorthand for New(NewMemoryLog(), opts...).
func NewInMemory(opts ...Option) *EventStore {
	return New(NewMemoryLog(), opts...)
}

// Log returns the backing log.
func (s *EventStore) Log() Log {
	return s.log
}

// lockFor returns the mutex serializing writes to id.
func (s *EventStore) lockFor(id turtle.ID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	return mu
}

// Append stores ev at the end of id's log and then delivers (id, ev) to
// every active subscriber in registration order. It returns after the
// last subscriber returns. Subscriber failures are never returned.
func (s *EventStore) Append(ctx context.Context, id turtle.ID, ev event.Event) (Record, error) {
	if ev == nil {
		return Record{}, fmt.Errorf("append to %s: %w", id, ErrNilEvent)
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	rec, err := s.log.Append(ctx, id, ev)
	if err != nil {
		return Record{}, fmt.Errorf("append %s to %s: %w", ev.Type(), id, err)
	}
	observability.RecordAppend(ev.Type())

	s.logger.Debug("event appended",
		"turtle_id", id,
		"type", ev.Type(),
		"seq", rec.Seq,
		"version", rec.Version,
	)

	s.notify(ctx, id, ev)
	return rec, nil
}

// Records returns id's stored records oldest-first. An id with no history
// yields an empty slice.
func (s *EventStore) Records(ctx context.Context, id turtle.ID) ([]Record, error) {
	records, err := s.log.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Events returns id's stored events oldest-first.
func (s *EventStore) Events(ctx context.Context, id turtle.ID) ([]event.Event, error) {
	return Get[event.Event](ctx, s, id)
}

// Get returns id's stored events oldest-first, keeping only those of type
// T. T is usually event.StateChanged, event.MovedEvent, or a single
// StateChanged case.
func Get[T event.Event](ctx context.Context, s *EventStore, id turtle.ID) ([]T, error) {
	records, err := s.Records(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.Event.(T); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Clear atomically empties id's log. Notifications already delivered are
// unaffected, and no notification is sent for the reset.
func (s *EventStore) Clear(ctx context.Context, id turtle.ID) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	if err := s.log.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear %s: %w", id, err)
	}
	observability.RecordClear()
	s.logger.Debug("log cleared", "turtle_id", id)
	return nil
}

// TurtleIDs lists every turtle with stored history.
func (s *EventStore) TurtleIDs(ctx context.Context) ([]turtle.ID, error) {
	ids, err := s.log.TurtleIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list turtles: %w", err)
	}
	return ids, nil
}
