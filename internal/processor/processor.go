package processor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/store"
	"github.com/roach88/turtle/internal/turtle"
)

// State is where a processor is in its lifecycle.
type State int

const (
	// Subscribed means registered with the store but not yet consuming.
	// Only asynchronous processors stay here, until Run starts.
	Subscribed State = iota + 1

	// Active means deliveries reach the handler.
	Active

	// Unsubscribed is terminal.
	Unsubscribed
)

func (s State) String() string {
	switch s {
	case Subscribed:
		return "subscribed"
	case Active:
		return "active"
	case Unsubscribed:
		return "unsubscribed"
	default:
		return "unknown"
	}
}

// Processor is a named, stoppable subscription.
type Processor struct {
	name    string
	sub     *store.Subscription
	handler store.Handler
	queue   *Queue
	log     *slog.Logger
	running atomic.Bool
}

// Attach subscribes h to s under name. The processor is Active on return
// and receives every event appended after this call, synchronously.
func Attach(s *store.EventStore, name string, h store.Handler) *Processor {
	return &Processor{
		name:    name,
		sub:     s.Subscribe(h, store.Named(name)),
		handler: h,
	}
}

// AttachAsync subscribes a queue in front of h. Appends only enqueue; h
// runs on the goroutine that calls Run, in append order. The processor is
// Subscribed until Run starts.
func AttachAsync(s *store.EventStore, name string, log *slog.Logger, h store.Handler) *Processor {
	if log == nil {
		log = slog.Default()
	}
	p := &Processor{
		name:    name,
		handler: h,
		queue:   NewQueue(name, log),
		log:     log,
	}
	p.sub = s.Subscribe(p.enqueue, store.Named(name))
	return p
}

// enqueue is an asynchronous processor's store subscription.
func (p *Processor) enqueue(ctx context.Context, id turtle.ID, ev event.Event) error {
	err := p.queue.Handle(ctx, id, ev)
	if errors.Is(err, ErrQueueClosed) {
		// raced with Stop after the consumer finished; not a failure
		p.log.Debug("delivery after stop dropped",
			"subscriber", p.name,
			"turtle_id", id,
			"type", ev.Type(),
		)
		return nil
	}
	return err
}

// Run consumes an asynchronous processor's queue until Stop drains it or
// ctx is done. For a synchronous processor it returns nil immediately.
func (p *Processor) Run(ctx context.Context) error {
	if p.queue == nil {
		return nil
	}
	p.running.Store(true)
	defer p.running.Store(false)
	return p.queue.Run(ctx, p.handler)
}

// Stop unsubscribes the processor. Events already queued, and deliveries
// in flight when Stop is called, are still handled by a running Run. Stop
// is idempotent.
func (p *Processor) Stop() {
	p.sub.Unsubscribe()
	if p.queue != nil {
		p.queue.Close()
	}
}

func (p *Processor) State() State {
	switch {
	case !p.sub.Active():
		return Unsubscribed
	case p.queue != nil && !p.running.Load():
		return Subscribed
	default:
		return Active
	}
}

func (p *Processor) Name() string {
	return p.name
}
