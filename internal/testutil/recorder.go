// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"context"
	"sync"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/turtle"
)

// Delivery is one (id, event) pair seen by a Recorder.
type Delivery struct {
	TurtleID turtle.ID
	Event    event.Event
}

// Recorder is a store.Handler-compatible subscriber that remembers every
// delivery in arrival order.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	deliveries []Delivery
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Handle records the delivery. Its signature matches store.Handler.
func (r *Recorder) Handle(_ context.Context, id turtle.ID, ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, Delivery{TurtleID: id, Event: ev})
	return nil
}

// Deliveries returns a copy of everything recorded so far.
func (r *Recorder) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Delivery, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

// For returns the events delivered for one turtle, in arrival order.
func (r *Recorder) For(id turtle.ID) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []event.Event
	for _, d := range r.deliveries {
		if d.TurtleID == id {
			out = append(out, d.Event)
		}
	}
	return out
}

// Len returns the number of deliveries recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deliveries)
}
