// Package linkrepair rewrites references to a note after it has been moved:
// wikilinks and markdown links in notes, and file nodes in canvas documents.
package linkrepair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	mdLinkRe   = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)
)

// Move describes a rename inside the vault. Both paths are vault-relative
// and slash-separated.
type Move struct {
	From string
	To   string
}

// fromRoot reports whether the moved file lived at the vault root, where
// bare basename links resolve to it.
func (m Move) fromRoot() bool {
	return !strings.Contains(m.From, "/")
}

// matches reports whether a link target (without subpath or alias) refers
// to the moved file.
func (m Move) matches(target string) bool {
	target = strings.TrimPrefix(strings.TrimSpace(target), "/")
	if target == "" {
		return false
	}
	if target == m.From || target == trimMD(m.From) {
		return true
	}
	return m.fromRoot() && target == trimMD(path.Base(m.From))
}

// Note rewrites every wikilink and markdown link in content that points at
// the moved file. It returns the new content and whether anything changed.
func Note(content []byte, m Move) ([]byte, bool) {
	changed := false

	out := wikilinkRe.ReplaceAllFunc(content, func(raw []byte) []byte {
		inner := string(raw[2 : len(raw)-2])

		// [[Target#Heading|Alias]] -> Target, #Heading, |Alias
		var alias, subpath string
		if i := strings.Index(inner, "|"); i >= 0 {
			alias = inner[i:]
			inner = inner[:i]
		}
		if i := strings.Index(inner, "#"); i >= 0 {
			subpath = inner[i:]
			inner = inner[:i]
		}
		if !m.matches(inner) {
			return raw
		}
		changed = true
		return []byte("[[" + trimMD(m.To) + subpath + alias + "]]")
	})

	out = mdLinkRe.ReplaceAllFunc(out, func(raw []byte) []byte {
		sub := mdLinkRe.FindSubmatch(raw)
		text, target := string(sub[1]), string(sub[2])
		if strings.Contains(target, "://") {
			return raw
		}

		var frag string
		if i := strings.Index(target, "#"); i >= 0 {
			frag = target[i:]
			target = target[:i]
		}
		decoded, err := url.PathUnescape(target)
		if err != nil {
			decoded = target
		}
		if !m.matches(decoded) {
			return raw
		}

		newTarget := m.To
		if !strings.HasSuffix(strings.ToLower(decoded), ".md") {
			newTarget = trimMD(m.To)
		}
		changed = true
		return []byte("[" + text + "](" + strings.ReplaceAll(newTarget, " ", "%20") + frag + ")")
	})

	return out, changed
}

// Canvas rewrites the "file" field of every file node in a canvas document
// that points at the moved file. Unknown fields are preserved.
func Canvas(content []byte, m Move) ([]byte, bool, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return content, false, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, false, fmt.Errorf("linkrepair: decode canvas: %w", err)
	}
	rawNodes, ok := doc["nodes"]
	if !ok {
		return content, false, nil
	}

	var nodes []map[string]any
	if err := json.Unmarshal(rawNodes, &nodes); err != nil {
		return nil, false, fmt.Errorf("linkrepair: decode canvas nodes: %w", err)
	}

	changed := false
	for _, n := range nodes {
		if n["type"] != "file" {
			continue
		}
		if f, _ := n["file"].(string); f == m.From {
			n["file"] = m.To
			changed = true
		}
	}
	if !changed {
		return content, false, nil
	}

	encoded, err := json.Marshal(nodes)
	if err != nil {
		return nil, false, fmt.Errorf("linkrepair: encode canvas nodes: %w", err)
	}
	doc["nodes"] = encoded

	out, err := json.MarshalIndent(doc, "", "\t")
	if err != nil {
		return nil, false, fmt.Errorf("linkrepair: encode canvas: %w", err)
	}
	return out, true, nil
}

// Store is the subset of vault storage link repair needs.
type Store interface {
	ListFiles(ext ...string) ([]string, error)
	Read(path string) ([]byte, error)
	Rewrite(path string, content []byte) error
}

// Vault repairs references to the moved file across every note and canvas
// in the store and returns the paths it rewrote. A file that cannot be
// decoded is skipped; the first read or write error aborts the pass.
func Vault(ctx context.Context, store Store, m Move) ([]string, error) {
	files, err := store.ListFiles(".md", ".canvas")
	if err != nil {
		return nil, fmt.Errorf("linkrepair: list: %w", err)
	}

	var rewritten []string
	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}
		if p == m.To {
			continue
		}
		data, err := store.Read(p)
		if err != nil {
			return rewritten, err
		}

		var out []byte
		var changed bool
		if strings.HasSuffix(p, ".canvas") {
			out, changed, err = Canvas(data, m)
			if err != nil {
				continue
			}
		} else {
			out, changed = Note(data, m)
		}
		if !changed {
			continue
		}
		if err := store.Rewrite(p, out); err != nil {
			return rewritten, err
		}
		rewritten = append(rewritten, p)
	}
	return rewritten, nil
}

func trimMD(p string) string {
	if strings.HasSuffix(strings.ToLower(p), ".md") {
		return p[:len(p)-3]
	}
	return p
}
