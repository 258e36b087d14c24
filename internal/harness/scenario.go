package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/turtle/internal/command"
	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/turtle"
)

// DefaultTurtleID is used when a scenario names none.
const DefaultTurtleID = "turtle-1"

// Scenario is one conformance test.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// TurtleID is the turtle steps address unless they set Turtle.
	TurtleID string `yaml:"turtle_id,omitempty"`

	// Backend is "memory" (default) or "sqlite".
	Backend string `yaml:"backend,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step either handles a textual command or clears a turtle's log.
type Step struct {
	Turtle  string `yaml:"turtle,omitempty"`
	Command string `yaml:"command,omitempty"`
	Clear   bool   `yaml:"clear,omitempty"`
}

// Assertion checks the trace or final state. Which fields apply depends on
// Type; pointer fields left nil are not checked.
type Assertion struct {
	Type string `yaml:"type"`

	// Turtle defaults to the scenario's TurtleID.
	Turtle string `yaml:"turtle,omitempty"`

	// final_state
	X     *float64 `yaml:"x,omitempty"`
	Y     *float64 `yaml:"y,omitempty"`
	Angle *float64 `yaml:"angle,omitempty"`
	Color string   `yaml:"color,omitempty"`
	Pen   string   `yaml:"pen,omitempty"`

	// event_count, lines_drawn
	Event string `yaml:"event,omitempty"`
	Count *int   `yaml:"count,omitempty"`

	// event_order
	Events []string `yaml:"events,omitempty"`

	// ink_total
	Total *float64 `yaml:"total,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState = "final_state"
	AssertEventCount = "event_count"
	AssertEventOrder = "event_order"
	AssertInkTotal   = "ink_total"
	AssertLinesDrawn = "lines_drawn"
)

var eventTypes = map[string]bool{
	event.TypeMoved:        true,
	event.TypeTurned:       true,
	event.TypePenWentUp:    true,
	event.TypePenWentDown:  true,
	event.TypeColorChanged: true,
	event.TypeMovedEvent:   true,
}

// LoadScenario reads and validates a scenario file. Unknown YAML fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if sc.TurtleID == "" {
		sc.TurtleID = DefaultTurtleID
	}
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

func (sc *Scenario) turtleFor(name string) turtle.ID {
	if name == "" {
		return turtle.ID(sc.TurtleID)
	}
	return turtle.ID(name)
}

func validateScenario(sc *Scenario) error {
	if sc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if sc.Description == "" {
		return fmt.Errorf("description is required")
	}
	switch sc.Backend {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("unknown backend %q", sc.Backend)
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(sc.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range sc.Steps {
		switch {
		case step.Clear && step.Command != "":
			return fmt.Errorf("steps[%d]: command and clear are mutually exclusive", i)
		case step.Clear:
		case step.Command == "":
			return fmt.Errorf("steps[%d]: command or clear is required", i)
		default:
			if _, err := command.Parse(step.Command); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
	}

	for i := range sc.Assertions {
		if err := validateAssertion(i, &sc.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertFinalState:
		if a.X == nil && a.Y == nil && a.Angle == nil && a.Color == "" && a.Pen == "" {
			return fmt.Errorf("assertions[%d]: final_state needs at least one of x, y, angle, color, pen", index)
		}
		if a.Color != "" {
			if _, err := turtle.ParseColor(a.Color); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
		if a.Pen != "" && a.Pen != turtle.Up.String() && a.Pen != turtle.Down.String() {
			return fmt.Errorf("assertions[%d]: pen must be Up or Down", index)
		}
	case AssertEventCount:
		if !eventTypes[a.Event] {
			return fmt.Errorf("assertions[%d]: unknown event type %q", index, a.Event)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
		for _, typ := range a.Events {
			if !eventTypes[typ] {
				return fmt.Errorf("assertions[%d]: unknown event type %q", index, typ)
			}
		}
	case AssertInkTotal:
		if a.Total == nil {
			return fmt.Errorf("assertions[%d]: total is required for ink_total", index)
		}
	case AssertLinesDrawn:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for lines_drawn", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
