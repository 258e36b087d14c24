package processor

import (
	"context"
	"math"
	"sync"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/store"
	"github.com/roach88/turtle/internal/turtle"
)

// EmitFunc receives an ink total for a turtle.
type EmitFunc func(id turtle.ID, total float64)

// InkUsage keeps a running total, per turtle, of the absolute distance of
// every Moved event it sees. Pen state is not consulted.
type InkUsage struct {
	emit  EmitFunc
	dedup bool

	mu      sync.Mutex
	totals  map[turtle.ID]float64
	emitted map[turtle.ID]float64
}

// NewInkUsage emits a turtle's total only when it differs from the last
// total emitted for that turtle. Every turtle starts from an emitted total
// of 0, so leading events that spend no ink emit nothing.
func NewInkUsage(emit EmitFunc) *InkUsage {
	return newInkUsage(emit, true)
}

// NewNaiveInkUsage emits the total after every StateChanged, changed or
// not.
func NewNaiveInkUsage(emit EmitFunc) *InkUsage {
	return newInkUsage(emit, false)
}

func newInkUsage(emit EmitFunc, dedup bool) *InkUsage {
	if emit == nil {
		emit = func(turtle.ID, float64) {}
	}
	return &InkUsage{
		emit:    emit,
		dedup:   dedup,
		totals:  make(map[turtle.ID]float64),
		emitted: make(map[turtle.ID]float64),
	}
}

func (u *InkUsage) Handler() store.Handler {
	return Filter(u.observe)
}

func (u *InkUsage) observe(_ context.Context, id turtle.ID, ev event.StateChanged) error {
	u.mu.Lock()
	total := u.totals[id]
	if m, ok := ev.(event.Moved); ok {
		total += math.Abs(m.Distance)
	}
	u.totals[id] = total

	if u.dedup {
		if u.emitted[id] == total {
			u.mu.Unlock()
			return nil
		}
		u.emitted[id] = total
	}
	u.mu.Unlock()

	u.emit(id, total)
	return nil
}

// Total returns the current total for id.
func (u *InkUsage) Total(id turtle.ID) float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totals[id]
}
