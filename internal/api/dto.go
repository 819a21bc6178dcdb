package api

import (
	"github.com/starford/canvasnest/internal/models"
	"github.com/starford/canvasnest/internal/relocator"
	"github.com/starford/canvasnest/internal/workspace"
)

// RelocateRequest is the request body for a manual relocation.
type RelocateRequest struct {
	Path string `json:"path" example:"Untitled.md" validate:"required"`
}

// RelocateResponse reports the relocator's decision.
type RelocateResponse struct {
	relocator.Outcome
	Error string `json:"error,omitempty"`
}

// OpenViewRequest is the request body for registering an open pane.
type OpenViewRequest struct {
	Type string `json:"type" example:"canvas" validate:"required"`
	File string `json:"file" example:"maps/Board.canvas"`
}

// View is a registered pane (aliased from the workspace layer).
type View = workspace.Leaf

// ViewListResponse wraps registered panes.
type ViewListResponse struct {
	Views []View `json:"views" validate:"required"`
}

// RelocationListResponse wraps relocation history rows.
type RelocationListResponse struct {
	Relocations []models.Relocation `json:"relocations" validate:"required"`
}
