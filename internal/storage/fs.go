package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/canvasnest/internal/apperr"
	"github.com/starford/canvasnest/internal/linkrepair"
	"github.com/starford/canvasnest/internal/models"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root   string // absolute path to vault directory
	logger *slog.Logger
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string, logger *slog.Logger) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FS{root: abs, logger: logger}, nil
}

// Dir returns the absolute vault directory.
func (f *FS) Dir() string {
	return f.root
}

// safePath resolves a vault path against the root and rejects any result
// that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" || rel == models.RootPath {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes vault root: %s", rel)
	}
	return abs, nil
}

// Rel converts an absolute path under the root into a vault path.
func (f *FS) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return models.RootPath, nil
	}
	return filepath.ToSlash(rel), nil
}

// Root returns the vault root folder.
func (f *FS) Root() *models.Entry {
	return models.Root()
}

// Lookup returns the entity at path, or nil when nothing exists there.
func (f *FS) Lookup(ctx context.Context, path string) (*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Lstat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: lookup %s: %w", path, err)
	}
	return models.NewEntry(path, info.IsDir()), nil
}

// CreateFolder creates path and any missing parents. It fails with
// apperr.ErrAlreadyExists when something already exists at path.
func (f *FS) CreateFolder(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err == nil {
		return fmt.Errorf("storage: create folder %s: %w", path, apperr.ErrAlreadyExists)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("storage: create folder %s: %w", path, err)
	}
	return nil
}

// Rename moves entry to newPath. The destination folder must already exist
// and the destination itself must not. After a successful rename, links to
// the old path are repaired across the vault; repair failures are logged.
func (f *FS) Rename(ctx context.Context, entry *models.Entry, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	absOld, err := f.safePath(entry.Path)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(absOld); err != nil {
		return fmt.Errorf("storage: rename %s: source: %w", entry.Path, apperr.ErrNotFound)
	}
	if info, err := os.Stat(filepath.Dir(absNew)); err != nil || !info.IsDir() {
		return fmt.Errorf("storage: rename %s: destination folder: %w", entry.Path, apperr.ErrNotFound)
	}
	if _, err := os.Lstat(absNew); err == nil {
		return fmt.Errorf("storage: rename %s: destination %s: %w", entry.Path, newPath, apperr.ErrAlreadyExists)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("storage: rename %s: %w", entry.Path, err)
	}

	if entry.Folder {
		return nil
	}
	rewritten, err := linkrepair.Vault(ctx, f, linkrepair.Move{
		From: models.CleanPath(entry.Path),
		To:   models.CleanPath(newPath),
	})
	if err != nil {
		f.logger.Warn("storage: link repair failed",
			slog.String("from", entry.Path),
			slog.String("to", newPath),
			slog.String("error", err.Error()))
	}
	for _, p := range rewritten {
		f.logger.Debug("storage: links repaired", slog.String("path", p))
	}
	return nil
}

// ListFiles walks the vault and returns the paths of every file with one of
// the given extensions (".md", ".canvas"). Dot-directories are skipped.
func (f *FS) ListFiles(ext ...string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != f.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasExt(d.Name(), ext) {
			return nil
		}
		rel, err := f.Rel(p)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Rewrite truncates and rewrites an existing file in place. The directory
// entry is never replaced, so watchers see a write, not a create.
func (f *FS) Rewrite(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("storage: rewrite %s: %w", path, err)
	}
	if _, err := file.Write(content); err != nil {
		_ = file.Close()
		return fmt.Errorf("storage: rewrite %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("storage: rewrite %s: %w", path, err)
	}
	return nil
}

func hasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}
