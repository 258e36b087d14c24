package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/turtle"
)

// MemoryLog keeps every turtle's log in process memory.
type MemoryLog struct {
	clock *Clock

	mu   sync.RWMutex
	logs map[turtle.ID][]Record
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		clock: NewClock(),
		logs:  make(map[turtle.ID][]Record),
	}
}

func (m *MemoryLog) Append(ctx context.Context, id turtle.ID, ev event.Event) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	version := int64(len(m.logs[id])) + 1
	eventID, err := event.ID(string(id), version, ev)
	if err != nil {
		return Record{}, fmt.Errorf("memory append: %w", err)
	}

	rec := Record{
		Seq:      m.clock.Next(),
		Version:  version,
		ID:       eventID,
		TurtleID: id,
		Event:    ev,
	}
	m.logs[id] = append(m.logs[id], rec)
	return rec, nil
}

// Load returns a copy; later appends never show through it.
func (m *MemoryLog) Load(ctx context.Context, id turtle.ID) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]Record, len(m.logs[id]))
	copy(records, m.logs[id])
	return records, nil
}

func (m *MemoryLog) Clear(ctx context.Context, id turtle.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.logs, id)
	return nil
}

func (m *MemoryLog) TurtleIDs(ctx context.Context) ([]turtle.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]turtle.ID, 0, len(m.logs))
	for id, recs := range m.logs {
		if len(recs) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
