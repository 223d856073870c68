package testsupport

import (
	"testing"

	"ytdb/internal/config"
	"ytdb/internal/journal"
	"ytdb/internal/store"
)

// MustOpenStore opens the sharded store rooted at the config output directory.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return st
}

// MustOpenJournal opens the attempt journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	j, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = j.Close()
	})
	return j
}
