package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/store"
	"github.com/roach88/turtle/internal/turtle"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Type string // only records of this event type
}

// TurtleSummary is one row of the turtle listing.
type TurtleSummary struct {
	TurtleID string `json:"turtle_id"`
	Events   int    `json:"events"`
}

// RecordView is the JSON form of a stored record.
type RecordView struct {
	Seq     int64           `json:"seq"`
	Version int64           `json:"version"`
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Event   json.RawMessage `json:"event"`
}

// HistoryResult is the history command's output. Exactly one of Turtles
// and Records is set.
type HistoryResult struct {
	TurtleID string          `json:"turtle_id,omitempty"`
	Turtles  []TurtleSummary `json:"turtles,omitempty"`
	Records  []RecordView    `json:"records,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [turtle-id]",
		Short: "Show stored events",
		Long: `Without arguments, list every turtle with stored history. With a turtle
id, print its records oldest-first in canonical JSON.

History only outlives a process with the sqlite backend.

Examples:
  turtle history --db turtle.db
  turtle history --db turtle.db t-1
  turtle history --db turtle.db t-1 --type moved_event --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "only show events of this type")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
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

	var result HistoryResult
	if len(args) == 0 {
		result.Turtles, err = summarize(ctx, s)
	} else {
		result.TurtleID = args[0]
		result.Records, err = recordViews(ctx, s, turtle.ID(args[0]), opts.Type)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read event log", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	if len(args) == 0 {
		if len(result.Turtles) == 0 {
			fmt.Fprintln(w, "No turtles found.")
			return nil
		}
		for _, t := range result.Turtles {
			fmt.Fprintf(w, "%s\t%d events\n", t.TurtleID, t.Events)
		}
		return nil
	}

	if len(result.Records) == 0 {
		fmt.Fprintf(w, "No events for %s.\n", result.TurtleID)
		return nil
	}
	for _, r := range result.Records {
		fmt.Fprintf(w, "%4d  v%-4d %s  %s\n", r.Seq, r.Version, shortID(r.ID), r.Event)
	}
	return nil
}

func summarize(ctx context.Context, s *store.EventStore) ([]TurtleSummary, error) {
	ids, err := s.TurtleIDs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TurtleSummary, 0, len(ids))
	for _, id := range ids {
		records, err := s.Records(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, TurtleSummary{TurtleID: string(id), Events: len(records)})
	}
	return out, nil
}

func recordViews(ctx context.Context, s *store.EventStore, id turtle.ID, typ string) ([]RecordView, error) {
	records, err := s.Records(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]RecordView, 0, len(records))
	for _, rec := range records {
		if typ != "" && rec.Event.Type() != typ {
			continue
		}
		data, err := event.MarshalCanonical(rec.Event)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", rec.Seq, err)
		}
		out = append(out, RecordView{
			Seq:     rec.Seq,
			Version: rec.Version,
			ID:      rec.ID,
			Type:    rec.Event.Type(),
			Event:   data,
		})
	}
	return out, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
