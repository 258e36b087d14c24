package processor

import (
	"context"
	"log/slog"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/store"
	"github.com/roach88/turtle/internal/turtle"
)

// Canvas is a drawing surface.
type Canvas interface {
	DrawLine(from, to turtle.Position, c turtle.Color) error
}

// Graphics draws one line per MovedEvent made with the pen down. Pen-up
// moves are ignored.
type Graphics struct {
	log    *slog.Logger
	canvas Canvas
}

func NewGraphics(log *slog.Logger, canvas Canvas) *Graphics {
	if log == nil {
		log = slog.Default()
	}
	return &Graphics{log: log, canvas: canvas}
}

func (g *Graphics) Handler() store.Handler {
	return Filter(g.render)
}

func (g *Graphics) render(_ context.Context, id turtle.ID, ev event.MovedEvent) error {
	if ev.PenColor == nil {
		return nil
	}

	g.log.Debug("render line",
		"turtle_id", id,
		"from", ev.Start.String(),
		"to", ev.End.String(),
		"color", ev.PenColor.String(),
	)
	return g.canvas.DrawLine(ev.Start, ev.End, *ev.PenColor)
}
