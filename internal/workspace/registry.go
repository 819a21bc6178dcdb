package workspace

import (
	"context"
	"sync"

	"github.com/starford/canvasnest/internal/models"
)

// Registry holds open panes reported by a companion client over the API.
// Leaves keep the order in which they were first opened.
type Registry struct {
	tree Lookuper

	mu     sync.RWMutex
	order  []string
	leaves map[string]Leaf
}

// NewRegistry creates an empty registry.
func NewRegistry(tree Lookuper) *Registry {
	return &Registry{tree: tree, leaves: make(map[string]Leaf)}
}

// Open registers or updates a pane. Updating keeps its original position.
func (r *Registry) Open(leaf Leaf) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leaves[leaf.ID]; !ok {
		r.order = append(r.order, leaf.ID)
	}
	r.leaves[leaf.ID] = leaf
}

// Close removes a pane. It reports whether the pane was registered.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leaves[id]; !ok {
		return false
	}
	delete(r.leaves, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns every registered pane.
func (r *Registry) List() []Leaf {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Leaf, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.leaves[id])
	}
	return out
}

// LeavesOfType returns registered panes of the given view type.
func (r *Registry) LeavesOfType(ctx context.Context, viewType string) ([]Leaf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Leaf
	for _, l := range r.List() {
		if l.Type == viewType {
			out = append(out, l)
		}
	}
	return out, nil
}

// LeafFile returns the file backing leaf, or nil.
func (r *Registry) LeafFile(ctx context.Context, leaf Leaf) (*models.Entry, error) {
	return leafFile(ctx, r.tree, leaf)
}
