package harness

import (
	"fmt"
	"strings"
)

// AssertionError is a failed assertion with the trace for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for _, te := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", te.Seq, te.TurtleID, te.Event.Type())
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion of sc against result and
// returns one message per failure.
func EvaluateAssertions(result *Result, sc *Scenario) []string {
	var errs []string
	for i, a := range sc.Assertions {
		if err := evaluate(result, sc, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluate(result *Result, sc *Scenario, a Assertion) error {
	switch a.Type {
	case AssertFinalState:
		return assertFinalState(result, sc, a)
	case AssertEventCount:
		return assertEventCount(result, sc, a)
	case AssertEventOrder:
		return assertEventOrder(result, sc, a)
	case AssertInkTotal:
		return assertInkTotal(result, sc, a)
	case AssertLinesDrawn:
		return assertLinesDrawn(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertFinalState(result *Result, sc *Scenario, a Assertion) error {
	id := sc.turtleFor(a.Turtle)
	st, ok := result.States[id]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("state for turtle %s", id),
			Actual:   "no step addressed this turtle",
		}
	}

	var diffs []string
	if a.X != nil && st.Position.X != *a.X {
		diffs = append(diffs, fmt.Sprintf("x=%g want %g", st.Position.X, *a.X))
	}
	if a.Y != nil && st.Position.Y != *a.Y {
		diffs = append(diffs, fmt.Sprintf("y=%g want %g", st.Position.Y, *a.Y))
	}
	if a.Angle != nil && st.Angle != *a.Angle {
		diffs = append(diffs, fmt.Sprintf("angle=%g want %g", st.Angle, *a.Angle))
	}
	if a.Color != "" && !strings.EqualFold(st.Color.String(), a.Color) {
		diffs = append(diffs, fmt.Sprintf("color=%s want %s", st.Color, a.Color))
	}
	if a.Pen != "" && st.Pen.String() != a.Pen {
		diffs = append(diffs, fmt.Sprintf("pen=%s want %s", st.Pen, a.Pen))
	}
	if len(diffs) == 0 {
		return nil
	}

	return &AssertionError{
		Type:     AssertFinalState,
		Expected: fmt.Sprintf("turtle %s matches", id),
		Actual:   strings.Join(diffs, ", "),
		Trace:    result.For(id),
	}
}

func assertEventCount(result *Result, sc *Scenario, a Assertion) error {
	id := sc.turtleFor(a.Turtle)
	trace := result.For(id)

	count := 0
	for _, te := range trace {
		if te.Event.Type() == a.Event {
			count++
		}
	}
	if count == *a.Count {
		return nil
	}

	return &AssertionError{
		Type:     AssertEventCount,
		Expected: fmt.Sprintf("%d %s events for %s", *a.Count, a.Event, id),
		Actual:   fmt.Sprintf("%d", count),
		Trace:    trace,
	}
}

// assertEventOrder checks that the types appear as a subsequence of the
// turtle's trace. Other events may appear in between.
func assertEventOrder(result *Result, sc *Scenario, a Assertion) error {
	id := sc.turtleFor(a.Turtle)
	trace := result.For(id)

	next := 0
	for _, te := range trace {
		if next < len(a.Events) && te.Event.Type() == a.Events[next] {
			next++
		}
	}
	if next == len(a.Events) {
		return nil
	}

	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: fmt.Sprintf("events in order %v", a.Events),
		Actual:   fmt.Sprintf("matched up to %v, missing %s", a.Events[:next], a.Events[next]),
		Trace:    trace,
	}
}

func assertInkTotal(result *Result, sc *Scenario, a Assertion) error {
	id := sc.turtleFor(a.Turtle)
	got := result.Ink[id]
	if got == *a.Total {
		return nil
	}

	return &AssertionError{
		Type:     AssertInkTotal,
		Expected: fmt.Sprintf("ink total %g for %s", *a.Total, id),
		Actual:   fmt.Sprintf("%g", got),
	}
}

func assertLinesDrawn(result *Result, a Assertion) error {
	got := 0
	if result.Canvas != nil {
		got = result.Canvas.Lines()
	}
	if got == *a.Count {
		return nil
	}

	return &AssertionError{
		Type:     AssertLinesDrawn,
		Expected: fmt.Sprintf("%d lines drawn", *a.Count),
		Actual:   fmt.Sprintf("%d", got),
		Trace:    result.Trace,
	}
}
