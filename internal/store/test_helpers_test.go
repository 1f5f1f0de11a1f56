package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/benchy/internal/ir"
)

// createTestStore opens a fresh database in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func benchSchema() *ir.Schema {
	return ir.NewSchema().
		MustAdd("HOST", ir.LongString).
		MustAdd("SIZE", ir.Integer).
		MustAdd("LATENCY", ir.Double)
}
