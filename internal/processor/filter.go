package processor

import (
	"context"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/store"
	"github.com/roach88/turtle/internal/turtle"
)

// Filter adapts a handler for one event type into a store.Handler that
// silently skips every other type. T may be a concrete event or the
// event.StateChanged interface.
func Filter[T event.Event](h func(ctx context.Context, id turtle.ID, ev T) error) store.Handler {
	return func(ctx context.Context, id turtle.ID, ev event.Event) error {
		v, ok := ev.(T)
		if !ok {
			return nil
		}
		return h(ctx, id, v)
	}
}
