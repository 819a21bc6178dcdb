// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes relocation tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/canvasnest/internal/apperr"
	"github.com/starford/canvasnest/internal/noteservice"
	"github.com/starford/canvasnest/internal/relocator"
)

const rulesURI = "canvasnest://relocation-rules"

// Server wraps the MCP server with relocation tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"CanvasNest",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("resolve_target_folder",
		mcp.WithDescription("Return the folder that notes created from the given canvas are moved to."),
		mcp.WithString("canvas", mcp.Required(), mcp.Description("Relative path to the canvas (e.g. maps/Board.canvas)")),
	), s.resolveTargetFolder)

	s.mcp.AddTool(mcp.NewTool("list_canvas_views",
		mcp.WithDescription("List open canvas panes in workspace order and the active canvas."),
	), s.listCanvasViews)

	s.mcp.AddTool(mcp.NewTool("relocate_note",
		mcp.WithDescription("Run the relocation rules for an existing note as if it had just been created. "+
			"Read the rules first via the "+rulesURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (must end with .md)")),
	), s.relocateNote)

	s.mcp.AddTool(mcp.NewTool("list_relocations",
		mcp.WithDescription("List recent relocation outcomes, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum rows (default 50)")),
	), s.listRelocations)

	s.mcp.AddResource(
		mcp.NewResource(rulesURI, "Relocation Rules",
			mcp.WithResourceDescription("When and where notes created from a canvas are moved."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRulesResource,
	)

	return s
}

// ServeStdio serves on stdin/stdout until ctx is cancelled or stdin closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) resolveTargetFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	canvas, err := req.RequireString("canvas")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	folder, err := s.svc.ResolveTargetFolder(ctx, canvas)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", canvas)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(folder), nil
}

func (s *Server) listCanvasViews(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	leaves, err := s.svc.CanvasViews(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	active, err := s.svc.ActiveCanvas(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	if active != nil {
		fmt.Fprintf(&b, "active: %s\n", active.Path)
	} else {
		b.WriteString("active: none\n")
	}
	for _, l := range leaves {
		file := l.File
		if file == "" {
			file = "(empty)"
		}
		fmt.Fprintf(&b, "%s\t%s\n", l.ID, file)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) relocateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.svc.Relocate(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	switch out.Status {
	case relocator.StatusRelocated:
		return mcp.NewToolResultText(fmt.Sprintf("relocated: %s -> %s", out.Note, out.Target)), nil
	case relocator.StatusFailed:
		return mcp.NewToolResultError(fmt.Sprintf("relocation failed: %s", out.ErrorText())), nil
	default:
		return mcp.NewToolResultText(fmt.Sprintf("skipped: %s", out.Reason)), nil
	}
}

func (s *Server) listRelocations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.History(ctx, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readRulesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      rulesURI,
			MIMEType: "text/markdown",
			Text:     RelocationRules,
		},
	}, nil
}
