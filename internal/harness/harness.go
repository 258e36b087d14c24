package harness

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/turtle/internal/command"
	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/processor"
	"github.com/roach88/turtle/internal/store"
	"github.com/roach88/turtle/internal/turtle"
)

// Harness holds one scenario run's store and processors.
type Harness struct {
	store   *store.EventStore
	handler *command.Handler
	clock   *store.Clock
	canvas  *processor.SVGCanvas

	mu    sync.Mutex
	trace []TraceEvent
	ink   map[turtle.ID]float64
}

// Run executes a scenario against a fresh store and evaluates its
// assertions. The returned error covers infrastructure and command
// failures; assertion failures are reported in Result.
func Run(ctx context.Context, sc *Scenario) (*Result, error) {
	log, closeLog, err := openLog(sc.Backend)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	s := store.New(log, store.WithLogger(turtle.Discard))
	h := &Harness{
		store:   s,
		handler: command.ForStore(turtle.Discard, s),
		clock:   store.NewClock(),
		canvas:  processor.NewSVGCanvas(),
		ink:     make(map[turtle.ID]float64),
	}

	procs := []*processor.Processor{
		processor.Attach(s, "trace", h.record),
		processor.Attach(s, "graphics", processor.NewGraphics(turtle.Discard, h.canvas).Handler()),
		processor.Attach(s, "ink", processor.NewInkUsage(h.recordInk).Handler()),
	}
	defer func() {
		for _, p := range procs {
			p.Stop()
		}
	}()

	touched := make(map[turtle.ID]bool)
	var order []turtle.ID
	for i, step := range sc.Steps {
		id := sc.turtleFor(step.Turtle)
		if !touched[id] {
			touched[id] = true
			order = append(order, id)
		}
		if err := h.execute(ctx, id, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	result := NewResult()
	result.Canvas = h.canvas
	h.mu.Lock()
	result.Trace = append(result.Trace, h.trace...)
	for id, total := range h.ink {
		result.Ink[id] = total
	}
	h.mu.Unlock()

	for _, id := range order {
		st, err := h.handler.State(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("final state of %s: %w", id, err)
		}
		result.States[id] = st
	}

	for _, msg := range EvaluateAssertions(result, sc) {
		result.AddError(msg)
	}
	return result, nil
}

func openLog(backend string) (store.Log, func(), error) {
	if backend != "sqlite" {
		return store.NewMemoryLog(), func() {}, nil
	}
	l, err := store.OpenSQLite(":memory:")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	return l, func() { _ = l.Close() }, nil
}

func (h *Harness) execute(ctx context.Context, id turtle.ID, step Step) error {
	if step.Clear {
		// processors are not notified; ink totals carry over
		return h.store.Clear(ctx, id)
	}

	action, err := command.Parse(step.Command)
	if err != nil {
		return err
	}
	return h.handler.Handle(ctx, command.Command{TurtleID: id, Action: action})
}

func (h *Harness) record(_ context.Context, id turtle.ID, ev event.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trace = append(h.trace, TraceEvent{
		Seq:      h.clock.Next(),
		TurtleID: id,
		Event:    ev,
	})
	return nil
}

func (h *Harness) recordInk(id turtle.ID, total float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ink[id] = total
}
