// Package storage defines the vault file-tree abstraction.
package storage

import (
	"context"

	"github.com/starford/canvasnest/internal/models"
)

// Provider is the interface for vault file-tree operations. All paths are
// slash-separated and relative to the vault root.
type Provider interface {
	// Root returns the vault root folder.
	Root() *models.Entry
	// Lookup returns the entity at path, or nil when nothing exists there.
	Lookup(ctx context.Context, path string) (*models.Entry, error)
	// CreateFolder creates the folder at path, including missing parents.
	CreateFolder(ctx context.Context, path string) error
	// Rename moves entry to newPath and repairs links that referenced it.
	Rename(ctx context.Context, entry *models.Entry, newPath string) error
	// ListFiles returns the paths of every file with one of the given extensions.
	ListFiles(ext ...string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Rewrite replaces the content of an existing file in place.
	Rewrite(path string, content []byte) error
}
