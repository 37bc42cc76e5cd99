package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spigell/outlet-matcher/internal/store"
)

// MustOpenStore opens a SQLite store in a per-test temp directory and closes it on cleanup.
func MustOpenStore(t testing.TB) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "outlets.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// MustSeedStore opens a store and loads the reference catalog into it.
func MustSeedStore(t testing.TB) *store.Store {
	t.Helper()

	s := MustOpenStore(t)
	if _, err := s.UpsertOutlets(context.Background(), Catalog()); err != nil {
		t.Fatalf("seed outlets: %v", err)
	}
	return s
}
