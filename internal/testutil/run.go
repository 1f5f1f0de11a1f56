package testutil

import (
	"fmt"
	"sync"
)

// SequenceRunGenerator hands out run identifiers "<prefix>-1", "<prefix>-2",
// and so on, in place of random UUIDs.
//
// Thread-safety: Generate is safe for concurrent use.
type SequenceRunGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceRunGenerator creates a generator. An empty prefix becomes "run".
func NewSequenceRunGenerator(prefix string) *SequenceRunGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &SequenceRunGenerator{prefix: prefix}
}

// Generate returns the next identifier.
func (g *SequenceRunGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}
