package store

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/observability"
	"github.com/roach88/turtle/internal/turtle"
)

// Handler receives every event appended to any turtle after it subscribes.
// A returned error is logged by the store and otherwise ignored.
type Handler func(ctx context.Context, id turtle.ID, ev event.Event) error

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id      uint64
	name    string
	handler Handler
	store   *EventStore
	closed  atomic.Bool
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*Subscription)

// Named labels the subscription in logs and metrics.
func Named(name string) SubscribeOption {
	return func(sub *Subscription) {
		sub.name = name
	}
}

// Subscribe registers h to receive every future (id, event) pair across
// all turtles. Handlers run in registration order.
func (s *EventStore) Subscribe(h Handler, opts ...SubscribeOption) *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.nextID++
	sub := &Subscription{
		id:      s.nextID,
		name:    fmt.Sprintf("subscriber-%d", s.nextID),
		handler: h,
		store:   s,
	}
	for _, opt := range opts {
		opt(sub)
	}

	s.subs = append(s.subs, sub)
	s.logger.Debug("subscriber registered", "subscriber", sub.name)
	return sub
}

// Unsubscribe stops delivery of future events. A delivery already running
// when Unsubscribe is called completes. Calling it twice is a no-op.
func (sub *Subscription) Unsubscribe() {
	if sub.closed.Swap(true) {
		return
	}
	sub.store.remove(sub)
}

// Active reports whether the subscription still receives events.
func (sub *Subscription) Active() bool {
	return !sub.closed.Load()
}

func (sub *Subscription) Name() string {
	return sub.name
}

// Subscribers returns the number of active subscriptions.
func (s *EventStore) Subscribers() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.subs)
}

func (s *EventStore) remove(sub *Subscription) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	// copy-on-write: notify may be ranging over the old slice
	kept := make([]*Subscription, 0, len(s.subs))
	for _, other := range s.subs {
		if other != sub {
			kept = append(kept, other)
		}
	}
	s.subs = kept
	s.logger.Debug("subscriber removed", "subscriber", sub.name)
}

// notify runs with id's write lock held, which is what keeps per-turtle
// delivery in append order.
func (s *EventStore) notify(ctx context.Context, id turtle.ID, ev event.Event) {
	s.subsMu.RLock()
	subs := s.subs
	s.subsMu.RUnlock()

	for _, sub := range subs {
		// unsubscribed after the snapshot was taken
		if !sub.Active() {
			continue
		}
		s.deliver(ctx, sub, id, ev)
	}
}

func (s *EventStore) deliver(ctx context.Context, sub *Subscription, id turtle.ID, ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscriber panicked",
				"subscriber", sub.name,
				"turtle_id", id,
				"type", ev.Type(),
				"panic", fmt.Sprint(r),
			)
			observability.RecordSubscriberFailure(sub.name, "panic")
			if s.unsubscribeOnPanic {
				sub.Unsubscribe()
			}
		}
	}()

	if err := sub.handler(ctx, id, ev); err != nil {
		s.logger.Warn("subscriber failed",
			"subscriber", sub.name,
			"turtle_id", id,
			"type", ev.Type(),
			"error", err,
		)
		observability.RecordSubscriberFailure(sub.name, "error")
	}
}
