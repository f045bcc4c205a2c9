package testutil

import (
	"testing"

	"songs-history/internal/database"
)

// NewTestStore creates an in-memory ledger with migrations applied.
// The store is automatically closed when the test completes.
func NewTestStore(t *testing.T) *database.SQLiteStore {
	t.Helper()

	s, err := database.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}
