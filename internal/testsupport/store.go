package testsupport

import (
	"testing"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
	"github.com/tanmayk15/AutoTranscriber/internal/runlog"
)

// MustOpenRunLog opens the run ledger for cfg and closes it on cleanup.
func MustOpenRunLog(t testing.TB, cfg *config.Config) *runlog.Store {
	t.Helper()
	store, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		t.Fatalf("runlog.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
