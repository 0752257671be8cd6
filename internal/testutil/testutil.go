// Package testutil provides shared test helpers for setting up vaults,
// ledgers and settings files.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/foldernote/internal/index"
	"github.com/starford/foldernote/internal/settings"
	"github.com/starford/foldernote/internal/storage"
)

// TestDB creates a temporary SQLite ledger that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "foldernote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestSettings creates a settings store in a temporary directory, seeded
// with st.
func TestSettings(t *testing.T, st settings.Settings) *settings.Store {
	t.Helper()
	s := settings.NewStore(filepath.Join(t.TempDir(), "settings.yaml"))
	if err := s.Save(st); err != nil {
		t.Fatal(err)
	}
	return s
}

// WriteNotes writes each path with its content into store.
func WriteNotes(t *testing.T, store storage.Provider, notes map[string]string) {
	t.Helper()
	for p, content := range notes {
		if err := store.Write(p, []byte(content)); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

// ReadNote returns the content of path in store.
func ReadNote(t *testing.T, store storage.Provider, path string) string {
	t.Helper()
	data, err := store.Read(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
