// Package testutil provides shared test helpers for setting up vaults and journals.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/canvasnest/internal/journal"
	"github.com/starford/canvasnest/internal/storage"
)

// Logger returns a logger that discards everything below error.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestJournal creates a temporary SQLite journal that is automatically cleaned up.
func TestJournal(t *testing.T) *journal.Journal {
	t.Helper()
	dbFile, err := os.CreateTemp("", "canvasnest-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	j, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

// TestVault creates a temporary vault directory with a storage.FS.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir, Logger())
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteFile creates a file in the vault, including parent folders.
func WriteFile(t *testing.T, vaultDir, rel, content string) {
	t.Helper()
	abs := filepath.Join(vaultDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Exists reports whether rel exists in the vault.
func Exists(vaultDir, rel string) bool {
	_, err := os.Stat(filepath.Join(vaultDir, filepath.FromSlash(rel)))
	return err == nil
}
