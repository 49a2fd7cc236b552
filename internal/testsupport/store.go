package testsupport

import (
	"testing"

	"storyreel/internal/config"
	"storyreel/internal/tasklog"
)

// MustOpenStore opens a tasklog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *tasklog.Store {
	t.Helper()

	store, err := tasklog.Open(cfg)
	if err != nil {
		t.Fatalf("tasklog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
