package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/starford/canvasnest/internal/models"
)

// DefaultLayoutFile is where the host persists its pane layout, relative to
// the vault root.
const DefaultLayoutFile = ".obsidian/workspace.json"

// Layout reads open panes from the host's layout file. The file is re-read
// on every call; nothing is cached between events.
type Layout struct {
	file string
	tree Lookuper
}

// NewLayout creates a Layout reading the given absolute file path.
func NewLayout(file string, tree Lookuper) *Layout {
	return &Layout{file: file, tree: tree}
}

// layoutNode is one node of the split/tabs/leaf tree.
type layoutNode struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Children []layoutNode `json:"children"`
	State    *struct {
		Type  string `json:"type"`
		State struct {
			File string `json:"file"`
		} `json:"state"`
	} `json:"state"`
}

type layoutDoc struct {
	Main  *layoutNode `json:"main"`
	Left  *layoutNode `json:"left"`
	Right *layoutNode `json:"right"`
}

// LeavesOfType returns the open leaves of the given view type in document
// order: main area first, then the left and right sidebars.
func (l *Layout) LeavesOfType(ctx context.Context, viewType string) ([]Leaf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("workspace: read layout: %w", err)
	}

	var doc layoutDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("workspace: decode layout: %w", err)
	}

	var out []Leaf
	for _, root := range []*layoutNode{doc.Main, doc.Left, doc.Right} {
		if root != nil {
			out = collectLeaves(*root, viewType, out)
		}
	}
	return out, nil
}

func collectLeaves(n layoutNode, viewType string, out []Leaf) []Leaf {
	if n.Type == "leaf" {
		if n.State != nil && n.State.Type == viewType {
			out = append(out, Leaf{ID: n.ID, Type: n.State.Type, File: n.State.State.File})
		}
		return out
	}
	for _, c := range n.Children {
		out = collectLeaves(c, viewType, out)
	}
	return out
}

// LeafFile returns the file backing leaf, or nil.
func (l *Layout) LeafFile(ctx context.Context, leaf Leaf) (*models.Entry, error) {
	return leafFile(ctx, l.tree, leaf)
}
