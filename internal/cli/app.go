package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/turtle/internal/config"
	"github.com/roach88/turtle/internal/observability"
	"github.com/roach88/turtle/internal/store"
)

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := observability.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return observability.NewLogger(w, level, "turtle"), nil
}

// openStore builds the event store the configuration asks for. The returned
// close function releases the backing database, if any.
func openStore(cfg *config.Config, log *slog.Logger) (*store.EventStore, func(), error) {
	opts := []store.Option{
		store.WithLogger(log),
		store.WithUnsubscribeOnPanic(cfg.UnsubscribeOnPanic),
	}

	switch cfg.Backend {
	case config.BackendSQLite:
		l, err := store.OpenSQLite(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.Database, err)
		}
		closeFn := func() {
			if err := l.Close(); err != nil {
				log.Error("error closing database", "error", err)
			}
		}
		return store.New(l, opts...), closeFn, nil
	default:
		return store.New(store.NewMemoryLog(), opts...), func() {}, nil
	}
}
