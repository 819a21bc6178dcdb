// Package relocator moves notes created from a canvas into a folder that
// sits next to the canvas and is named after it.
//
// A note counts as created from a canvas when a canvas pane is open and the
// note landed at the vault root, which is where the host drops notes it
// spawns from a canvas. This is a heuristic: any root-level note created
// while a canvas is open is treated the same way. It is isolated in
// SourcePredicate so it can be replaced.
//
// When several canvases are open the first one in workspace order wins.
package relocator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/canvasnest/internal/apperr"
	"github.com/starford/canvasnest/internal/models"
	"github.com/starford/canvasnest/internal/workspace"
)

const (
	noteSuffix   = ".md"
	folderPrefix = "elements-of_"
	maxCounter   = 1000
)

// FileTree is the host file tree.
type FileTree interface {
	Root() *models.Entry
	Lookup(ctx context.Context, path string) (*models.Entry, error)
	CreateFolder(ctx context.Context, path string) error
	Rename(ctx context.Context, entry *models.Entry, newPath string) error
}

// Workspace enumerates open panes.
type Workspace interface {
	LeavesOfType(ctx context.Context, viewType string) ([]workspace.Leaf, error)
	LeafFile(ctx context.Context, leaf workspace.Leaf) (*models.Entry, error)
}

// SourcePredicate decides whether a new note was spawned from a canvas.
type SourcePredicate func(ctx context.Context, note *models.Entry) (bool, error)

// Observer receives every outcome for which an active canvas was found.
type Observer func(ctx context.Context, out Outcome)

// Relocator reacts to file creation notifications.
type Relocator struct {
	tree      FileTree
	ws        Workspace
	logger    *slog.Logger
	now       func() time.Time
	source    SourcePredicate
	observers []Observer
}

// Option configures a Relocator.
type Option func(*Relocator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relocator) { r.logger = l }
}

// WithClock sets the clock used for the timestamp fallback name.
func WithClock(now func() time.Time) Option {
	return func(r *Relocator) { r.now = now }
}

// WithSourcePredicate replaces the canvas-source heuristic.
func WithSourcePredicate(p SourcePredicate) Option {
	return func(r *Relocator) { r.source = p }
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(r *Relocator) { r.observers = append(r.observers, o) }
}

// New creates a Relocator.
func New(tree FileTree, ws Workspace, opts ...Option) *Relocator {
	r := &Relocator{
		tree:   tree,
		ws:     ws,
		logger: slog.Default(),
		now:    time.Now,
	}
	r.source = r.CreatedFromCanvas
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle processes one creation notification. It never returns an error:
// faults are logged and reported through the Outcome.
func (r *Relocator) Handle(ctx context.Context, e *models.Entry) Outcome {
	out := Outcome{Status: StatusSkipped}
	if e == nil || !IsNoteFile(e) {
		out.Reason = ReasonNotNote
		return out
	}
	out.Note = e.Path

	ok, err := r.source(ctx, e)
	if err != nil {
		r.logger.Warn("relocator: source check failed", slog.String("path", e.Path), slog.String("error", err.Error()))
		out.Reason = ReasonNotFromCanvas
		return out
	}
	if !ok {
		r.logger.Debug("relocator: not from canvas", slog.String("path", e.Path))
		out.Reason = ReasonNotFromCanvas
		return out
	}

	canvas, err := r.ActiveCanvas(ctx)
	if err != nil {
		r.logger.Warn("relocator: resolve canvas failed", slog.String("path", e.Path), slog.String("error", err.Error()))
	}
	if canvas == nil {
		out.Reason = ReasonNoCanvas
		return out
	}
	out.Canvas = canvas.Path

	folder := TargetFolderPath(canvas)
	if folder == "" {
		out.Reason = ReasonNoFolder
		return r.report(ctx, out)
	}
	out.Folder = folder

	if e.ParentPath() == folder {
		out.Reason = ReasonAlreadyPlaced
		return r.report(ctx, out)
	}

	r.ensureFolder(ctx, folder)

	name, err := r.UniqueFileName(ctx, folder, e.Name())
	if err != nil {
		return r.fail(ctx, out, fmt.Errorf("%w: %w", apperr.ErrMove, err))
	}
	out.Target = folder + "/" + name

	if err := r.move(ctx, e, out.Target); err != nil {
		return r.fail(ctx, out, err)
	}

	r.logger.Info("relocator: note moved",
		slog.String("from", e.Path),
		slog.String("to", out.Target),
		slog.String("canvas", canvas.Path))
	out.Status = StatusRelocated
	return r.report(ctx, out)
}

// IsNoteFile reports whether e is a regular file with the note suffix.
func IsNoteFile(e *models.Entry) bool {
	return !e.Folder && strings.HasSuffix(e.Path, noteSuffix)
}

// CreatedFromCanvas is the default SourcePredicate: a canvas pane is open
// and the note sits at the vault root.
func (r *Relocator) CreatedFromCanvas(ctx context.Context, note *models.Entry) (bool, error) {
	leaves, err := r.ws.LeavesOfType(ctx, workspace.ViewCanvas)
	if err != nil {
		return false, err
	}
	if len(leaves) == 0 {
		return false, nil
	}
	return note.Parent != nil && note.Parent.Path == r.tree.Root().Path, nil
}

// ActiveCanvas returns the file of the first open canvas pane backed by a
// canvas document, or nil.
func (r *Relocator) ActiveCanvas(ctx context.Context) (*models.Entry, error) {
	leaves, err := r.ws.LeavesOfType(ctx, workspace.ViewCanvas)
	if err != nil {
		return nil, err
	}
	for _, leaf := range leaves {
		f, err := r.ws.LeafFile(ctx, leaf)
		if err != nil {
			r.logger.Debug("relocator: leaf file lookup failed",
				slog.String("leaf", leaf.ID), slog.String("error", err.Error()))
			continue
		}
		if f != nil && !f.Folder && f.Extension() == models.ExtCanvas {
			return f, nil
		}
	}
	return nil, nil
}

// TargetFolderPath returns the folder that collects notes of canvas:
// "elements-of_<basename>" next to the canvas. It returns "" when the
// canvas has no parent.
func TargetFolderPath(canvas *models.Entry) string {
	if canvas.Parent == nil {
		return ""
	}
	name := folderPrefix + canvas.Basename()
	parent := canvas.Parent.Path
	if parent == "" || parent == models.RootPath {
		return name
	}
	return parent + "/" + name
}

// ensureFolder creates folder when missing. Failures are logged and
// swallowed; a missing folder makes the move fail later.
func (r *Relocator) ensureFolder(ctx context.Context, folder string) {
	existing, err := r.tree.Lookup(ctx, folder)
	if err == nil && existing != nil {
		return
	}
	if err == nil {
		err = r.tree.CreateFolder(ctx, folder)
	}
	if err != nil {
		r.logger.Warn("relocator: could not create folder",
			slog.String("folder", folder),
			slog.String("error", fmt.Errorf("%w: %w", apperr.ErrFolderCreation, err).Error()))
	}
}

// UniqueFileName returns a name that does not collide with anything in
// folder: fileName itself, else "<base> <n>.md" for the smallest free n
// below 1000, else "<base> <epoch-millis>.md". Probing is not a
// reservation; a concurrent writer can still take the name.
func (r *Relocator) UniqueFileName(ctx context.Context, folder, fileName string) (string, error) {
	existing, err := r.tree.Lookup(ctx, folder+"/"+fileName)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return fileName, nil
	}

	base := strings.TrimSuffix(fileName, noteSuffix)
	for n := 1; n < maxCounter; n++ {
		candidate := fmt.Sprintf("%s %d%s", base, n, noteSuffix)
		existing, err := r.tree.Lookup(ctx, folder+"/"+candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s %d%s", base, r.now().UnixMilli(), noteSuffix), nil
}

func (r *Relocator) move(ctx context.Context, note *models.Entry, target string) error {
	if err := r.tree.Rename(ctx, note, target); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrMove, err)
	}
	return nil
}

func (r *Relocator) fail(ctx context.Context, out Outcome, err error) Outcome {
	r.logger.Error("relocator: failed to move note",
		slog.String("path", out.Note),
		slog.String("target", out.Target),
		slog.String("error", err.Error()))
	out.Status = StatusFailed
	out.Reason = ReasonMoveFailed
	out.Err = err
	return r.report(ctx, out)
}

func (r *Relocator) report(ctx context.Context, out Outcome) Outcome {
	for _, o := range r.observers {
		o(ctx, out)
	}
	return out
}

// IsMoveFault reports whether err came from a failed rename.
func IsMoveFault(err error) bool {
	return errors.Is(err, apperr.ErrMove)
}
