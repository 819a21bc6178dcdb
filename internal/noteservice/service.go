// Package noteservice coordinates the relocator with storage, the open-view
// registry, and the relocation journal. It backs the HTTP API and the MCP
// server.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/canvasnest/internal/apperr"
	"github.com/starford/canvasnest/internal/checksum"
	"github.com/starford/canvasnest/internal/journal"
	"github.com/starford/canvasnest/internal/models"
	"github.com/starford/canvasnest/internal/relocator"
	"github.com/starford/canvasnest/internal/sse"
	"github.com/starford/canvasnest/internal/storage"
	"github.com/starford/canvasnest/internal/workspace"
)

// Service coordinates relocation, storage, and history.
type Service struct {
	store    storage.Provider
	ws       relocator.Workspace
	registry *workspace.Registry
	journal  *journal.Journal
	broker   *sse.Broker
	logger   *slog.Logger
	reloc    *relocator.Relocator
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry exposes the view registry through the service.
func WithRegistry(r *workspace.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithJournal records relocation outcomes.
func WithJournal(j *journal.Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithBroker publishes relocation outcomes as SSE events.
func WithBroker(b *sse.Broker) Option {
	return func(s *Service) { s.broker = b }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new service and the relocator it drives.
func NewService(store storage.Provider, ws relocator.Workspace, opts ...Option) *Service {
	s := &Service{store: store, ws: ws, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.reloc = relocator.New(store, ws,
		relocator.WithLogger(s.logger),
		relocator.WithObserver(s.observe),
	)
	return s
}

// Handle passes a creation notification to the relocator.
func (s *Service) Handle(ctx context.Context, e *models.Entry) relocator.Outcome {
	return s.reloc.Handle(ctx, e)
}

// Relocate runs the relocator for the note at path as if it had just been
// created.
func (s *Service) Relocate(ctx context.Context, path string) (relocator.Outcome, error) {
	e, err := s.store.Lookup(ctx, models.CleanPath(path))
	if err != nil {
		return relocator.Outcome{}, err
	}
	if e == nil {
		return relocator.Outcome{}, apperr.ErrNotFound
	}
	return s.reloc.Handle(ctx, e), nil
}

// ResolveTargetFolder returns the folder notes of the canvas at path are
// moved to.
func (s *Service) ResolveTargetFolder(ctx context.Context, path string) (string, error) {
	e, err := s.store.Lookup(ctx, models.CleanPath(path))
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", apperr.ErrNotFound
	}
	if e.Folder || e.Extension() != models.ExtCanvas {
		return "", fmt.Errorf("not a canvas document: %s", path)
	}
	return relocator.TargetFolderPath(e), nil
}

// ActiveCanvas returns the canvas new notes would be attributed to, or nil.
func (s *Service) ActiveCanvas(ctx context.Context) (*models.Entry, error) {
	return s.reloc.ActiveCanvas(ctx)
}

// CanvasViews lists open canvas panes.
func (s *Service) CanvasViews(ctx context.Context) ([]workspace.Leaf, error) {
	return s.ws.LeavesOfType(ctx, workspace.ViewCanvas)
}

// RegistryEnabled reports whether panes are reported through the API.
func (s *Service) RegistryEnabled() bool {
	return s.registry != nil
}

// Views lists every registered pane.
func (s *Service) Views() ([]workspace.Leaf, error) {
	if s.registry == nil {
		return nil, apperr.ErrNotFound
	}
	return s.registry.List(), nil
}

// OpenView registers or updates a pane and returns it as stored.
func (s *Service) OpenView(leaf workspace.Leaf) (workspace.Leaf, error) {
	if s.registry == nil {
		return workspace.Leaf{}, apperr.ErrNotFound
	}
	leaf.File = strings.TrimPrefix(leaf.File, "/")
	s.registry.Open(leaf)
	return leaf, nil
}

// CloseView removes a pane.
func (s *Service) CloseView(id string) error {
	if s.registry == nil || !s.registry.Close(id) {
		return apperr.ErrNotFound
	}
	return nil
}

// History returns recent relocation outcomes, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]models.Relocation, error) {
	if s.journal == nil {
		return []models.Relocation{}, nil
	}
	rows, err := s.journal.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(rows), nil
}

// observe records and publishes one relocation outcome.
func (s *Service) observe(ctx context.Context, out relocator.Outcome) {
	if out.Status == relocator.StatusSkipped {
		return
	}

	rec := models.Relocation{
		NotePath:   out.Note,
		CanvasPath: out.Canvas,
		TargetPath: out.Target,
		Status:     out.Status,
		Error:      out.ErrorText(),
	}
	if out.Status == relocator.StatusRelocated {
		if data, err := s.store.Read(out.Target); err == nil {
			rec.Checksum = checksum.Sum(data)
		}
	}

	if s.journal != nil {
		if _, err := s.journal.Record(ctx, rec); err != nil {
			s.logger.Warn("noteservice: journal record failed",
				slog.String("path", out.Note),
				slog.String("error", err.Error()))
		}
	}
	if s.broker != nil {
		s.broker.PublishRelocation(sse.RelocationData{
			Note:   out.Note,
			Canvas: out.Canvas,
			Target: out.Target,
			Error:  rec.Error,
		}, out.Status == relocator.StatusFailed)
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
