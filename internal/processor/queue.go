package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/observability"
	"github.com/roach88/turtle/internal/store"
	"github.com/roach88/turtle/internal/turtle"
)

// ErrQueueClosed is returned by Handle once the queue is closed and no Run
// loop is left to drain it.
var ErrQueueClosed = errors.New("queue closed")

type delivery struct {
	id turtle.ID
	ev event.Event
}

// Queue is an unbounded FIFO of deliveries between the store and a slow
// handler. Handle never blocks on the consumer.
//
// A delivery that arrives after Close while Run is still draining is
// accepted: it was in flight when the queue closed.
//
// Thread-safety: Handle and Close may be called from any goroutine while a
// single Run loop consumes.
type Queue struct {
	name string
	log  *slog.Logger

	mu      sync.Mutex
	items   []delivery
	closed  bool
	running bool
	signal  chan struct{} // buffered, size 1
}

func NewQueue(name string, log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		name:   name,
		log:    log,
		items:  make([]delivery, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Handle enqueues (id, ev). Its signature matches store.Handler.
func (q *Queue) Handle(_ context.Context, id turtle.ID, ev event.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed && !q.running {
		return ErrQueueClosed
	}
	q.items = append(q.items, delivery{id: id, ev: ev})
	q.wake()
	return nil
}

// wake must be called with mu held. The buffer of 1 coalesces signals.
func (q *Queue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *Queue) tryDequeue() (delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return delivery{}, false
	}

	d := q.items[0]
	q.items[0] = delivery{} // release the event for GC
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return d, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting deliveries and wakes Run. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.wake()
}

// finish reports whether the queue is closed and empty. When it is, Run
// stops and later deliveries are refused.
func (q *Queue) finish() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed && len(q.items) == 0 {
		q.running = false
		return true
	}
	return false
}

func (q *Queue) setRunning(running bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.running = running
}

// Run delivers queued events to h in FIFO order. It returns nil once the
// queue is closed and empty, or ctx.Err() when ctx is done first. Handler
// errors and panics are logged and counted, never returned.
func (q *Queue) Run(ctx context.Context, h store.Handler) error {
	q.setRunning(true)
	defer q.setRunning(false)

	for {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, ok := q.tryDequeue()
			if !ok {
				break
			}
			q.deliver(ctx, h, d)
		}

		if q.finish() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.signal:
		}
	}
}

func (q *Queue) deliver(ctx context.Context, h store.Handler, d delivery) {
	defer func() {
		if r := recover(); r != nil {
			observability.RecordSubscriberFailure(q.name, "panic")
			q.log.Error("queued handler panicked",
				"subscriber", q.name,
				"turtle_id", d.id,
				"type", d.ev.Type(),
				"panic", fmt.Sprint(r),
			)
		}
	}()

	if err := h(ctx, d.id, d.ev); err != nil {
		observability.RecordSubscriberFailure(q.name, "error")
		q.log.Warn("queued handler failed",
			"subscriber", q.name,
			"turtle_id", d.id,
			"type", d.ev.Type(),
			"error", err,
		)
	}
}
