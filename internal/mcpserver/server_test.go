package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/canvasnest/internal/noteservice"
	"github.com/starford/canvasnest/internal/testutil"
	"github.com/starford/canvasnest/internal/workspace"
)

func testServer(t *testing.T) (*Server, string, *workspace.Registry) {
	t.Helper()

	vaultDir, store := testutil.TestVault(t)
	reg := workspace.NewRegistry(store)
	svc := noteservice.NewService(store, reg,
		noteservice.WithRegistry(reg),
		noteservice.WithJournal(testutil.TestJournal(t)),
		noteservice.WithLogger(testutil.Logger()))
	return New(svc), vaultDir, reg
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "resolve_target_folder":
		result, err = srv.resolveTargetFolder(ctx, req)
	case "list_canvas_views":
		result, err = srv.listCanvasViews(ctx, req)
	case "relocate_note":
		result, err = srv.relocateNote(ctx, req)
	case "list_relocations":
		result, err = srv.listRelocations(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestResolveTargetFolder(t *testing.T) {
	srv, vaultDir, _ := testServer(t)
	testutil.WriteFile(t, vaultDir, "maps/Board.canvas", "{}")
	testutil.WriteFile(t, vaultDir, "note.md", "")

	r := callTool(t, srv, "resolve_target_folder", map[string]any{"canvas": "maps/Board.canvas"})
	if text := resultText(r); text != "maps/elements-of_Board" {
		t.Errorf("folder = %q", text)
	}

	r = callTool(t, srv, "resolve_target_folder", map[string]any{"canvas": "note.md"})
	if !r.IsError {
		t.Error("expected error for non-canvas document")
	}

	r = callTool(t, srv, "resolve_target_folder", map[string]any{"canvas": "ghost.canvas"})
	if !r.IsError {
		t.Error("expected error for missing canvas")
	}
}

func TestListCanvasViews(t *testing.T) {
	srv, vaultDir, reg := testServer(t)
	testutil.WriteFile(t, vaultDir, "Board.canvas", "{}")

	r := callTool(t, srv, "list_canvas_views", map[string]any{})
	if text := resultText(r); text != "active: none" {
		t.Errorf("empty views = %q", text)
	}

	reg.Open(workspace.Leaf{ID: "a", Type: workspace.ViewCanvas})
	reg.Open(workspace.Leaf{ID: "b", Type: workspace.ViewCanvas, File: "Board.canvas"})

	r = callTool(t, srv, "list_canvas_views", map[string]any{})
	want := "active: Board.canvas\na\t(empty)\nb\tBoard.canvas"
	if text := resultText(r); text != want {
		t.Errorf("views = %q, want %q", text, want)
	}
}

func TestRelocateNote(t *testing.T) {
	srv, vaultDir, reg := testServer(t)
	testutil.WriteFile(t, vaultDir, "Board.canvas", "{}")
	testutil.WriteFile(t, vaultDir, "Idea.md", "")

	r := callTool(t, srv, "relocate_note", map[string]any{"path": "Idea.md"})
	if text := resultText(r); text != "skipped: not_from_canvas" {
		t.Errorf("without canvas = %q", text)
	}

	reg.Open(workspace.Leaf{ID: "b", Type: workspace.ViewCanvas, File: "Board.canvas"})
	r = callTool(t, srv, "relocate_note", map[string]any{"path": "Idea.md"})
	if text := resultText(r); text != "relocated: Idea.md -> elements-of_Board/Idea.md" {
		t.Errorf("with canvas = %q", text)
	}
	if !testutil.Exists(vaultDir, "elements-of_Board/Idea.md") {
		t.Error("note not moved on disk")
	}

	r = callTool(t, srv, "list_relocations", map[string]any{"limit": 10})
	if text := resultText(r); !strings.Contains(text, `"target_path": "elements-of_Board/Idea.md"`) {
		t.Errorf("history = %s", text)
	}
}

func TestRelocateNoteMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "relocate_note", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestRulesResource(t *testing.T) {
	srv, _, _ := testServer(t)
	contents, err := srv.readRulesResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || !strings.Contains(tc.Text, "elements-of_") {
		t.Errorf("unexpected resource: %+v", contents)
	}
}
