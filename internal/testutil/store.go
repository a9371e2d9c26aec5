// Package testutil provides shared helpers for the bot's tests:
// temp-file stores and a deterministic wall clock.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/jpelias/base-repeat-twitter-bot/internal/store"
)

// TempStore opens a store backed by a file in a per-test temp dir,
// closed automatically at test end.
func TempStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
