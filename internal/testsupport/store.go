package testsupport

import (
	"context"
	"testing"

	"luxafor/internal/config"
	"luxafor/internal/history"
)

// MustOpenHistory opens the configured history store and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// Transitions returns every recorded transition, newest first.
func Transitions(t testing.TB, store *history.Store) []history.Transition {
	t.Helper()

	items, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("store.Recent: %v", err)
	}
	return items
}
