package turtle

import (
	"sync"

	"github.com/google/uuid"
)

// ID names one turtle's independent event history.
type ID string

// IDGenerator produces turtle ids.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() ID
}

// NewID returns a fresh UUIDv7 turtle id.
func NewID() ID {
	return UUIDv7Generator{}.Generate()
}

// UUIDv7Generator generates time-sortable UUIDv7 ids, so ids listed in
// lexical order are also in creation order.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate panics if the random source fails.
func (UUIDv7Generator) Generate() ID {
	return ID(uuid.Must(uuid.NewV7()).String())
}

// FixedGenerator returns predetermined ids in order, for deterministic
// tests and golden traces. It panics once the ids are exhausted.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []ID
	idx int
}

func NewFixedGenerator(ids ...ID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

func (g *FixedGenerator) Generate() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
