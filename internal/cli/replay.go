package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/turtle/internal/command"
	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/store"
	"github.com/roach88/turtle/internal/turtle"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
}

// ReplayTurtleResult holds the replay result for a single turtle.
type ReplayTurtleResult struct {
	TurtleID      string     `json:"turtle_id"`
	StateChanges  int        `json:"state_changes"`
	Moves         int        `json:"moves"`
	Final         *StateView `json:"final,omitempty"`
	Deterministic bool       `json:"deterministic"`
	Consistent    bool       `json:"consistent"`
	Error         string     `json:"error,omitempty"`
}

func (r ReplayTurtleResult) ok() bool {
	return r.Deterministic && r.Consistent && r.Error == ""
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Turtles []ReplayTurtleResult `json:"turtles"`
	AllOK   bool                 `json:"all_ok"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [turtle-id...]",
		Short: "Rebuild state from the log and verify it",
		Long: `Rebuild each turtle's state from its StateChanged events, twice, and
check that both replays agree. Every stored MovedEvent is also checked
against the move it was derived from.

Exit codes:
  0 - Every turtle replays deterministically and consistently
  1 - Verification failed
  2 - Command error (database not found, etc.)

Examples:
  turtle replay --db turtle.db
  turtle replay --db turtle.db t-1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args, cmd)
		},
	}

	return cmd
}

func runReplay(opts *ReplayOptions, args []string, cmd *cobra.Command) error {
	ctx := context.Background()

	log, err := newLogger(opts.Config, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	s, closeStore, err := openStore(opts.Config, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open event log", err)
	}
	defer closeStore()

	ids := make([]turtle.ID, 0, len(args))
	for _, a := range args {
		ids = append(ids, turtle.ID(a))
	}
	if len(ids) == 0 {
		ids, err = s.TurtleIDs(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list turtles", err)
		}
	}

	result := ReplayResult{
		Turtles: make([]ReplayTurtleResult, 0, len(ids)),
		AllOK:   true,
	}
	for _, id := range ids {
		tr, err := replayTurtle(ctx, s, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay %s", id), err)
		}
		result.Turtles = append(result.Turtles, tr)
		if !tr.ok() {
			result.AllOK = false
		}
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.AllOK {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_REPLAY", Message: "replay verification failed"}
		}
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, result)
	}

	if !result.AllOK {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

// replayTurtle only returns an error for storage failures; replay problems
// are reported in the result.
func replayTurtle(ctx context.Context, s *store.EventStore, id turtle.ID) (ReplayTurtleResult, error) {
	all, err := s.Events(ctx, id)
	if err != nil {
		return ReplayTurtleResult{}, err
	}

	var changes []event.StateChanged
	moves := 0
	for _, ev := range all {
		switch e := ev.(type) {
		case event.StateChanged:
			changes = append(changes, e)
		case event.MovedEvent:
			moves++
		}
	}

	tr := ReplayTurtleResult{
		TurtleID:     string(id),
		StateChanges: len(changes),
		Moves:        moves,
	}

	first, err := command.Replay(changes)
	if err != nil {
		tr.Error = err.Error()
		return tr, nil
	}
	second, err := command.Replay(changes)
	if err != nil {
		tr.Error = err.Error()
		return tr, nil
	}
	tr.Deterministic = first == second
	view := viewOf(first)
	tr.Final = &view

	if _, err := command.Verify(all); err != nil {
		tr.Error = err.Error()
	} else {
		tr.Consistent = true
	}
	return tr, nil
}

func outputReplayText(cmd *cobra.Command, result ReplayResult) {
	w := cmd.OutOrStdout()

	if len(result.Turtles) == 0 {
		fmt.Fprintln(w, "No turtles found.")
		return
	}

	fmt.Fprintf(w, "Replay Summary: %d turtle(s)\n\n", len(result.Turtles))
	for _, t := range result.Turtles {
		status := "✓"
		if !t.ok() {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Turtle: %s\n", status, t.TurtleID)
		fmt.Fprintf(w, "  Events: %d state changes, %d moves\n", t.StateChanges, t.Moves)
		if t.Final != nil {
			fmt.Fprintf(w, "  Final: %s\n", t.Final)
		}
		if t.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", t.Error)
		}
		fmt.Fprintln(w)
	}

	if result.AllOK {
		fmt.Fprintln(w, "✓ All turtles verified")
		return
	}
	fmt.Fprintln(w, "✗ Replay verification failed")
}
