package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/turtle/internal/command"
	"github.com/roach88/turtle/internal/observability"
	"github.com/roach88/turtle/internal/processor"
	"github.com/roach88/turtle/internal/turtle"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	TurtleID string
	SVG      string
	Reset    bool
	Async    bool
	Metrics  bool
}

// RunResult is the run command's output.
type RunResult struct {
	TurtleID string    `json:"turtle_id"`
	Commands int       `json:"commands"`
	Events   int       `json:"events"`
	Final    StateView `json:"final"`
	Ink      float64   `json:"ink"`
	Lines    int       `json:"lines"`
	SVG      string    `json:"svg,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Execute a command script against a turtle",
		Long: `Execute a script of turtle commands, one per line:

  Move 100
  Turn 120
  Pen Up
  Pen Down
  SetColor Red

Blank lines and lines starting with # are ignored. Use - to read stdin.
The graphics, physical and ink processors observe every event; with --svg
the drawing is written as an SVG file.

Exit codes:
  0 - All commands handled
  1 - A command was rejected
  2 - Command error (unreadable script, database error, etc.)

Examples:
  turtle run triangle.txt
  turtle run triangle.txt --svg triangle.svg
  turtle run triangle.txt --db turtle.db --turtle t-1 --reset`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.TurtleID, "turtle", "", "turtle id (default: a new UUIDv7)")
	cmd.Flags().StringVar(&opts.SVG, "svg", "", "write the drawing to this SVG file")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "clear the turtle's history first")
	cmd.Flags().BoolVar(&opts.Async, "async", false, "deliver to the physical processor through a queue")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics to stderr when done")

	return cmd
}

func readScript(path string, stdin io.Reader) ([]command.Action, error) {
	if path == "-" {
		return command.ParseScript(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return command.ParseScript(f)
}

func runScript(opts *RunOptions, path string, cmd *cobra.Command) error {
	cfg := opts.Config
	if cmd.Flags().Changed("svg") {
		cfg.SVG = opts.SVG
	}

	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}

	actions, err := readScript(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}

	id := turtle.ID(opts.TurtleID)
	if id == "" {
		id = opts.IDGenerator.Generate()
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, closeStore, err := openStore(cfg, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open event log", err)
	}
	defer closeStore()

	if opts.Reset {
		if err := s.Clear(ctx, id); err != nil {
			return WrapExitError(ExitCommandError, "failed to reset turtle", err)
		}
	}

	canvas := processor.NewSVGCanvas()
	var ink float64
	procs := []*processor.Processor{
		processor.Attach(s, "graphics", processor.NewGraphics(log, canvas).Handler()),
		processor.Attach(s, "ink", processor.NewInkUsage(func(tid turtle.ID, total float64) {
			log.Info("ink usage", "turtle_id", tid, "total", total)
			if tid == id {
				ink = total
			}
		}).Handler()),
	}

	physical := processor.NewPhysical(log).Handler()
	var asyncDone chan error
	if opts.Async {
		p := processor.AttachAsync(s, "physical", log, physical)
		procs = append(procs, p)
		asyncDone = make(chan error, 1)
		go func() { asyncDone <- p.Run(ctx) }()
	} else {
		procs = append(procs, processor.Attach(s, "physical", physical))
	}

	handler := command.ForStore(log, s)
	handled := 0
	for i, a := range actions {
		if err := handler.Handle(ctx, command.Command{TurtleID: id, Action: a}); err != nil {
			stopAll(procs, asyncDone, log)
			return WrapExitError(ExitFailure, fmt.Sprintf("command %d (%s) failed", i+1, a.Name()), err)
		}
		handled++
	}
	stopAll(procs, asyncDone, log)

	final, err := handler.State(ctx, id)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to rebuild state", err)
	}
	records, err := s.Records(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read event log", err)
	}

	if cfg.SVG != "" {
		if err := writeSVG(cfg.SVG, canvas); err != nil {
			return WrapExitError(ExitCommandError, "failed to write SVG", err)
		}
	}

	if opts.Metrics {
		if err := observability.WriteMetrics(cmd.ErrOrStderr()); err != nil {
			log.Warn("failed to write metrics", "error", err)
		}
	}

	result := RunResult{
		TurtleID: string(id),
		Commands: handled,
		Events:   len(records),
		Final:    viewOf(final),
		Ink:      ink,
		Lines:    canvas.Lines(),
		SVG:      cfg.SVG,
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Turtle: %s\n", result.TurtleID)
	fmt.Fprintf(w, "Commands: %d  Events: %d\n", result.Commands, result.Events)
	fmt.Fprintf(w, "Final: %s\n", result.Final)
	fmt.Fprintf(w, "Ink: %g  Lines: %d\n", result.Ink, result.Lines)
	if result.SVG != "" {
		fmt.Fprintf(w, "SVG written to %s\n", result.SVG)
	}
	return nil
}

func stopAll(procs []*processor.Processor, asyncDone chan error, log *slog.Logger) {
	for _, p := range procs {
		p.Stop()
	}
	if asyncDone == nil {
		return
	}
	if err := <-asyncDone; err != nil {
		log.Warn("async processor stopped early", "error", err)
	}
}

func writeSVG(path string, canvas *processor.SVGCanvas) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := canvas.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
