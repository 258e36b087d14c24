package harness

import (
	"bytes"
	"fmt"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/turtle"
)

// Snapshot renders a result as one line of canonical JSON: the trace in
// delivery order, each turtle's final state and ink total, and the number
// of lines drawn. Identical runs produce identical bytes.
func Snapshot(name string, r *Result) ([]byte, error) {
	trace := make([]any, len(r.Trace))
	for i, te := range r.Trace {
		ev, err := event.ToMap(te.Event)
		if err != nil {
			return nil, fmt.Errorf("trace[%d]: %w", i, err)
		}
		trace[i] = map[string]any{
			"seq":       te.Seq,
			"turtle_id": string(te.TurtleID),
			"event":     ev,
		}
	}

	states := make(map[string]any, len(r.States))
	for id, st := range r.States {
		states[string(id)] = stateMap(st)
	}

	ink := make(map[string]any, len(r.Ink))
	for id, total := range r.Ink {
		ink[string(id)] = total
	}

	lines := 0
	if r.Canvas != nil {
		lines = r.Canvas.Lines()
	}

	data, err := event.MarshalCanonicalValue(map[string]any{
		"scenario_name": name,
		"trace":         trace,
		"final_states":  states,
		"ink":           ink,
		"lines":         lines,
	})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func stateMap(st turtle.State) map[string]any {
	return map[string]any{
		"x":     st.Position.X,
		"y":     st.Position.Y,
		"angle": st.Angle,
		"color": st.Color.String(),
		"pen":   st.Pen.String(),
	}
}

// AssertGolden compares result's snapshot with
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// CompareGolden checks a snapshot against a golden file outside of go
// test. With update set it rewrites the file instead.
func CompareGolden(path string, snapshot []byte, update bool) error {
	if update {
		if err := os.WriteFile(path, snapshot, 0o644); err != nil {
			return fmt.Errorf("write golden: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read golden: %w", err)
	}
	if !bytes.Equal(want, snapshot) {
		return fmt.Errorf("snapshot differs from %s", path)
	}
	return nil
}
