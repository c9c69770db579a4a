package warehouse

import (
	"context"
	"testing"
)

// NewTestStore opens a migrated in-memory store that closes with the test.
func NewTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := OpenInMemory(context.Background())
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
