package harness

import (
	"sort"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/processor"
	"github.com/roach88/turtle/internal/turtle"
)

// TraceEvent is one delivery seen by the trace recorder.
type TraceEvent struct {
	Seq      int64
	TurtleID turtle.ID
	Event    event.Event
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool

	// Trace lists every appended event in delivery order.
	Trace []TraceEvent

	Errors []string

	// States holds the replayed final state of every turtle a step touched.
	States map[turtle.ID]turtle.State

	// Ink holds the last total the ink processor emitted per turtle.
	Ink map[turtle.ID]float64

	// Canvas holds the lines the graphics processor drew.
	Canvas *processor.SVGCanvas
}

func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		States: make(map[turtle.ID]turtle.State),
		Ink:    make(map[turtle.ID]float64),
	}
}

// AddError records a failed check and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// For returns the trace entries for one turtle.
func (r *Result) For(id turtle.ID) []TraceEvent {
	var out []TraceEvent
	for _, te := range r.Trace {
		if te.TurtleID == id {
			out = append(out, te)
		}
	}
	return out
}

// TurtleIDs returns the ids in States, sorted.
func (r *Result) TurtleIDs() []turtle.ID {
	ids := make([]turtle.ID, 0, len(r.States))
	for id := range r.States {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
