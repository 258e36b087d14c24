package processor

import (
	"context"
	"log/slog"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/store"
	"github.com/roach88/turtle/internal/turtle"
)

// Physical drives a simulated plotter: every MovedEvent becomes a logged
// device move, pen up or down.
type Physical struct {
	log *slog.Logger
}

func NewPhysical(log *slog.Logger) *Physical {
	if log == nil {
		log = slog.Default()
	}
	return &Physical{log: log}
}

func (p *Physical) Handler() store.Handler {
	return Filter(p.move)
}

func (p *Physical) move(_ context.Context, id turtle.ID, ev event.MovedEvent) error {
	pen := "up"
	if ev.Drawn() {
		pen = ev.PenColor.String()
	}
	p.log.Info("device move",
		"turtle_id", id,
		"from", ev.Start.String(),
		"to", ev.End.String(),
		"pen", pen,
	)
	return nil
}
