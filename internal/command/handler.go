package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/observability"
	"github.com/roach88/turtle/internal/store"
	"github.com/roach88/turtle/internal/turtle"
)

// LoadFunc returns a turtle's StateChanged events, oldest-first.
type LoadFunc func(ctx context.Context, id turtle.ID) ([]event.StateChanged, error)

// AppendFunc appends one event to a turtle's log.
type AppendFunc func(ctx context.Context, id turtle.ID, ev event.Event) error

// Handler turns commands into events.
type Handler struct {
	log    *slog.Logger
	load   LoadFunc
	append AppendFunc
}

// NewHandler creates a handler over arbitrary load and append functions.
// A nil logger falls back to slog.Default.
func NewHandler(log *slog.Logger, load LoadFunc, appendEvent AppendFunc) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:    log,
		load:   load,
		append: appendEvent,
	}
}

// ForStore creates a handler that loads from and appends to s.
func ForStore(log *slog.Logger, s *store.EventStore) *Handler {
	load := func(ctx context.Context, id turtle.ID) ([]event.StateChanged, error) {
		return store.Get[event.StateChanged](ctx, s, id)
	}
	appendEvent := func(ctx context.Context, id turtle.ID, ev event.Event) error {
		_, err := s.Append(ctx, id, ev)
		return err
	}
	return NewHandler(log, load, appendEvent)
}

// Handle executes cmd against the turtle's current state.
//
// The StateChanged event is appended before its MovedEvent, so a subscriber
// always sees cause before consequence. A failed MovedEvent append leaves
// the StateChanged in place; state stays correct because MovedEvents are
// never replayed.
func (h *Handler) Handle(ctx context.Context, cmd Command) error {
	err := h.handle(ctx, cmd)

	name := "unknown"
	if cmd.Action != nil {
		name = cmd.Action.Name()
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.RecordCommand(name, outcome)
	return err
}

func (h *Handler) handle(ctx context.Context, cmd Command) error {
	changed, err := ToEvent(cmd.Action)
	if err != nil {
		return err
	}

	before, err := h.State(ctx, cmd.TurtleID)
	if err != nil {
		return err
	}

	after, err := Apply(h.log.With("turtle_id", string(cmd.TurtleID)), before, changed)
	if err != nil {
		return fmt.Errorf("apply %s: %w", changed.Type(), err)
	}

	if err := h.append(ctx, cmd.TurtleID, changed); err != nil {
		return fmt.Errorf("append %s: %w", changed.Type(), err)
	}

	if moved, ok := Derive(before, after); ok {
		if err := h.append(ctx, cmd.TurtleID, moved); err != nil {
			return fmt.Errorf("append %s: %w", moved.Type(), err)
		}
	}

	h.log.Debug("command handled",
		"turtle_id", cmd.TurtleID,
		"action", cmd.Action.Name(),
		"position", after.Position.String(),
		"angle", after.Angle,
	)
	return nil
}

// State replays the turtle's history and returns its current state. An
// unknown id yields turtle.Initial.
func (h *Handler) State(ctx context.Context, id turtle.ID) (turtle.State, error) {
	history, err := h.load(ctx, id)
	if err != nil {
		return turtle.State{}, fmt.Errorf("load %s: %w", id, err)
	}

	state, err := Replay(history)
	if err != nil {
		return turtle.State{}, fmt.Errorf("replay %s: %w", id, err)
	}
	return state, nil
}
