package linkrepair

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rootMove = Move{From: "Untitled.md", To: "elements-of_Board/Untitled.md"}

func TestNote_Wikilinks(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"basename", "[[Untitled]]", "[[elements-of_Board/Untitled]]"},
		{"with extension", "[[Untitled.md]]", "[[elements-of_Board/Untitled]]"},
		{"alias", "[[Untitled|my idea]]", "[[elements-of_Board/Untitled|my idea]]"},
		{"heading and alias", "[[Untitled#Part 2|p2]]", "[[elements-of_Board/Untitled#Part 2|p2]]"},
		{"embed", "![[Untitled]]", "![[elements-of_Board/Untitled]]"},
		{"other note", "[[Untitled 2]]", "[[Untitled 2]]"},
		{"empty", "[[]]", "[[]]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, changed := Note([]byte(tc.in), rootMove)
			assert.Equal(t, tc.want, string(out))
			assert.Equal(t, tc.in != tc.want, changed)
		})
	}
}

func TestNote_BasenameOnlyMatchesRootFiles(t *testing.T) {
	m := Move{From: "notes/Idea.md", To: "notes/elements-of_X/Idea.md"}

	out, changed := Note([]byte("[[Idea]] [[notes/Idea]]"), m)
	assert.True(t, changed)
	assert.Equal(t, "[[Idea]] [[notes/elements-of_X/Idea]]", string(out))
}

func TestNote_MarkdownLinks(t *testing.T) {
	m := Move{From: "My Note.md", To: "elements-of_Board/My Note 1.md"}
	in := "a [x](My%20Note.md) b [y](My%20Note.md#top) c [z](https://example.com/My%20Note.md) d [w](Other.md)"
	want := "a [x](elements-of_Board/My%20Note%201.md) b [y](elements-of_Board/My%20Note%201.md#top) c [z](https://example.com/My%20Note.md) d [w](Other.md)"

	out, changed := Note([]byte(in), m)
	assert.True(t, changed)
	assert.Equal(t, want, string(out))
}

func TestCanvas_RewritesFileNodes(t *testing.T) {
	in := `{
	"nodes": [
		{"id": "a", "type": "file", "file": "Untitled.md", "x": -120, "y": 40, "width": 400, "height": 400, "color": "3"},
		{"id": "b", "type": "text", "text": "Untitled.md", "x": 0, "y": 0, "width": 100, "height": 60},
		{"id": "c", "type": "file", "file": "Other.md", "x": 10, "y": 10, "width": 100, "height": 60}
	],
	"edges": [{"id": "e1", "fromNode": "a", "toNode": "c"}]
}`
	out, changed, err := Canvas([]byte(in), rootMove)
	require.NoError(t, err)
	require.True(t, changed)

	var doc struct {
		Nodes []map[string]any `json:"nodes"`
		Edges []map[string]any `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Len(t, doc.Nodes, 3)
	assert.Equal(t, "elements-of_Board/Untitled.md", doc.Nodes[0]["file"])
	assert.Equal(t, "3", doc.Nodes[0]["color"])
	assert.Equal(t, float64(-120), doc.Nodes[0]["x"])
	assert.Equal(t, "Untitled.md", doc.Nodes[1]["text"], "text nodes are not links")
	assert.Equal(t, "Other.md", doc.Nodes[2]["file"])
	require.Len(t, doc.Edges, 1)
	assert.Equal(t, "e1", doc.Edges[0]["id"])
}

func TestCanvas_Unchanged(t *testing.T) {
	in := []byte(`{"nodes":[{"id":"a","type":"file","file":"Other.md"}]}`)
	out, changed, err := Canvas(in, rootMove)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, in, out)

	out, changed, err = Canvas(nil, rootMove)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, out)
}

func TestCanvas_Invalid(t *testing.T) {
	_, _, err := Canvas([]byte("{not json"), rootMove)
	assert.Error(t, err)
}

// memStore is an in-memory Store.
type memStore struct {
	files    map[string]string
	writes   []string
	writeErr error
}

func (m *memStore) ListFiles(...string) ([]string, error) {
	out := make([]string, 0, len(m.files))
	for _, p := range []string{"Board.canvas", "Broken.canvas", "Index.md", "Plain.md", "elements-of_Board/Untitled.md"} {
		if _, ok := m.files[p]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) Read(p string) ([]byte, error) {
	return []byte(m.files[p]), nil
}

func (m *memStore) Rewrite(p string, content []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes = append(m.writes, p)
	m.files[p] = string(content)
	return nil
}

func TestVault(t *testing.T) {
	store := &memStore{files: map[string]string{
		"Board.canvas":                  `{"nodes":[{"id":"a","type":"file","file":"Untitled.md"}]}`,
		"Broken.canvas":                 `{oops`,
		"Index.md":                      "[[Untitled]]",
		"Plain.md":                      "no links",
		"elements-of_Board/Untitled.md": "[[Untitled]]",
	}}

	rewritten, err := Vault(context.Background(), store, rootMove)
	require.NoError(t, err)
	assert.Equal(t, []string{"Board.canvas", "Index.md"}, rewritten)
	assert.Equal(t, "[[elements-of_Board/Untitled]]", store.files["Index.md"])
	assert.Equal(t, "[[Untitled]]", store.files["elements-of_Board/Untitled.md"], "the moved file itself is left alone")
}

func TestVault_WriteError(t *testing.T) {
	store := &memStore{
		files:    map[string]string{"Index.md": "[[Untitled]]"},
		writeErr: errors.New("read-only"),
	}
	_, err := Vault(context.Background(), store, rootMove)
	assert.Error(t, err)
}
