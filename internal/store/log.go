package store

import (
	"context"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/turtle"
)

// Record is one stored event and its position in the log.
type Record struct {
	// Seq orders records store-wide.
	Seq int64
	// Version is the 1-based position within the turtle's log.
	Version int64
	// ID is the content-addressed id from event.ID.
	ID       string
	TurtleID turtle.ID
	Event    event.Event
}

// Log is the backing storage of an EventStore.
//
// Implementations must be safe for concurrent use across turtles. The
// EventStore guarantees that Append and Clear for one turtle are never
// called concurrently.
type Log interface {
	// Append stores ev at the end of id's log.
	Append(ctx context.Context, id turtle.ID, ev event.Event) (Record, error)
	// Load returns id's records oldest-first; an empty slice if none.
	Load(ctx context.Context, id turtle.ID) ([]Record, error)
	// Clear empties id's log.
	Clear(ctx context.Context, id turtle.ID) error
	// TurtleIDs lists every turtle with a non-empty log, sorted.
	TurtleIDs(ctx context.Context) ([]turtle.ID, error)
}

var (
	_ Log = (*MemoryLog)(nil)
	_ Log = (*SQLiteLog)(nil)
)
