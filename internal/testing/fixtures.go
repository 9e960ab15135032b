package testing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/teranos/kgmap/graph"
)

// SourceFixture builds a versioned source directory in a temp dir.
// All writes fail the test on error.
type SourceFixture struct {
	Root string
	t    *testing.T
}

// NewSourceDir creates an empty source directory.
// Removed automatically via t.TempDir().
func NewSourceDir(t *testing.T) *SourceFixture {
	t.Helper()
	return &SourceFixture{Root: t.TempDir(), t: t}
}

// History writes history.json with the versions in the given order
func (f *SourceFixture) History(versions ...graph.Version) *SourceFixture {
	f.t.Helper()
	f.WriteJSON("history.json", versions)
	return f
}

// Snapshot writes snapshots/<id>.json
func (f *SourceFixture) Snapshot(id string, snap graph.Snapshot) *SourceFixture {
	f.t.Helper()
	f.WriteJSON(filepath.Join("snapshots", id+".json"), snap)
	return f
}

// Diff writes diffs/<from>__<to>.json
func (f *SourceFixture) Diff(from, to string, diff graph.DiffResponse) *SourceFixture {
	f.t.Helper()
	f.WriteJSON(filepath.Join("diffs", from+"__"+to+".json"), diff)
	return f
}

// WriteJSON encodes v to a path relative to Root
func (f *SourceFixture) WriteJSON(rel string, v interface{}) string {
	f.t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		f.t.Fatalf("Failed to encode %s: %v", rel, err)
	}
	return f.WriteFile(rel, string(data))
}

// WriteFile writes raw content to a path relative to Root, creating parent dirs
func (f *SourceFixture) WriteFile(rel, content string) string {
	f.t.Helper()
	path := filepath.Join(f.Root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		f.t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		f.t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// Concept returns a typed node
func Concept(id, name string) graph.Node {
	return graph.Node{ID: id, Name: name, Type: "concept"}
}

// Contains returns a containment link between two ids
func Contains(source, target string) graph.Link {
	return graph.Link{Source: graph.IDRef(source), Target: graph.IDRef(target), Type: graph.DefaultContainmentType}
}

// Related returns a link of any type between two ids
func Related(source, target, typ string) graph.Link {
	return graph.Link{Source: graph.IDRef(source), Target: graph.IDRef(target), Type: typ}
}

// SmallGraph is a three-concept snapshot: root contains child, child cites other
func SmallGraph() graph.Snapshot {
	return graph.Snapshot{
		Nodes: []graph.Node{
			Concept("root", "Root"),
			Concept("child", "Child"),
			Concept("other", "Other"),
		},
		Links: []graph.Link{
			Contains("root", "child"),
			Related("child", "other", "cites"),
		},
	}
}
