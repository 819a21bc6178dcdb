// Package workspace enumerates the panes open in the host editor and
// resolves the file each pane is showing.
package workspace

import (
	"context"

	"github.com/starford/canvasnest/internal/models"
)

// Source names accepted in configuration.
const (
	SourceLayout   = "layout"
	SourceRegistry = "registry"
)

// ViewCanvas is the view type of a canvas pane.
const ViewCanvas = "canvas"

// Leaf is an open editor pane.
type Leaf struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	File string `json:"file,omitempty"`
}

// Lookuper resolves a vault path to a file-tree entity.
type Lookuper interface {
	Lookup(ctx context.Context, path string) (*models.Entry, error)
}

// leafFile returns the entity backing leaf, or nil when the leaf has no
// file or the file no longer exists.
func leafFile(ctx context.Context, tree Lookuper, leaf Leaf) (*models.Entry, error) {
	if leaf.File == "" {
		return nil, nil
	}
	return tree.Lookup(ctx, leaf.File)
}
