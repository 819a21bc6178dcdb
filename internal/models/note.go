// Package models defines the domain types for canvasnest.
package models

import (
	"path"
	"strings"
	"time"
)

// RootPath is the path of the vault root folder.
const RootPath = "/"

// File extensions without the leading dot.
const (
	ExtNote   = "md"
	ExtCanvas = "canvas"
)

// Entry is a file-tree entity: a file or a folder inside the vault.
// Paths are slash-separated and relative to the vault root.
type Entry struct {
	Path   string `json:"path"`
	Folder bool   `json:"folder"`
	Parent *Entry `json:"-"`
}

// Root returns the vault root folder.
func Root() *Entry {
	return &Entry{Path: RootPath, Folder: true}
}

// NewEntry builds an entry and its parent chain from a vault path.
func NewEntry(p string, folder bool) *Entry {
	p = CleanPath(p)
	if p == RootPath {
		return Root()
	}
	e := &Entry{Path: p, Folder: folder}
	if dir := path.Dir(p); dir == "." {
		e.Parent = Root()
	} else {
		e.Parent = NewEntry(dir, true)
	}
	return e
}

// CleanPath normalises a vault path: slash-separated, no leading slash,
// "" and "/" both mean the root.
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return RootPath
	}
	return p
}

// IsRoot reports whether the entry is the vault root.
func (e *Entry) IsRoot() bool {
	return e.Path == RootPath
}

// Name returns the last path segment, including the extension.
func (e *Entry) Name() string {
	if e.IsRoot() {
		return ""
	}
	return path.Base(e.Path)
}

// Extension returns the extension without the dot, or "" for folders.
func (e *Entry) Extension() string {
	if e.Folder {
		return ""
	}
	return strings.TrimPrefix(path.Ext(e.Name()), ".")
}

// Basename returns the name without its final extension.
func (e *Entry) Basename() string {
	name := e.Name()
	if e.Folder {
		return name
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// ParentPath returns the parent folder path, or "" when there is no parent.
func (e *Entry) ParentPath() string {
	if e.Parent == nil {
		return ""
	}
	return e.Parent.Path
}

// Relocation is one row of the relocation history.
type Relocation struct {
	ID         int64     `json:"id"`
	NotePath   string    `json:"note_path"`
	CanvasPath string    `json:"canvas_path"`
	TargetPath string    `json:"target_path"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Checksum   string    `json:"checksum,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
