package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/graph"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"snap.json", FormatJSON, false},
		{"snap.JSON", FormatJSON, false},
		{"snap.yaml", FormatYAML, false},
		{"dir/snap.yml", FormatYAML, false},
		{"snap.toml", "", true},
		{"snap", "", true},
	}

	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatFromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
		if tt.wantErr && !errors.Is(err, errors.ErrUnsupportedFormat) {
			t.Errorf("FormatFromPath(%q) should wrap ErrUnsupportedFormat", tt.path)
		}
	}
}

func TestDecodeSnapshotJSON(t *testing.T) {
	in := `{
		"nodes": [{"id": "A", "type": "concept", "metadata": {"status": "pending"}}, {"id": "B"}],
		"links": [{"source": "A", "target": 1, "type": "contains"}]
	}`

	snap, err := DecodeSnapshot(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)

	require.Len(t, snap.Nodes, 2)
	assert.Equal(t, "pending", snap.Nodes[0].Metadata["status"])
	require.Len(t, snap.Links, 1)
	assert.Equal(t, graph.IDRef("A"), snap.Links[0].Source)
	assert.Equal(t, graph.IndexRef(1), snap.Links[0].Target)
}

func TestDecodeSnapshotYAML(t *testing.T) {
	in := `
nodes:
  - id: A
    name: Alpha
  - id: B
links:
  - source: Alpha
    target: {id: B}
    type: cites
`
	snap, err := DecodeSnapshot(strings.NewReader(in), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "Alpha", snap.Nodes[0].Name)
	require.Len(t, snap.Links, 1)
	assert.Equal(t, graph.RefNode, snap.Links[0].Target.Kind)
}

func TestDecodeSnapshotMalformed(t *testing.T) {
	_, err := DecodeSnapshot(strings.NewReader(`{"nodes": [`), FormatJSON)
	assert.Error(t, err)
}

func TestDecodeDiff(t *testing.T) {
	t.Run("envelope", func(t *testing.T) {
		in := `{"diff": {"nodes": [{"id": "N", "changeStatus": "added"}], "links": []},
			"summary": {"added": 1, "semanticSummary": "one new concept"}}`

		diff, err := DecodeDiff(strings.NewReader(in), FormatJSON)
		require.NoError(t, err)
		require.Len(t, diff.Diff.Nodes, 1)
		assert.Equal(t, graph.StatusAdded, diff.Diff.Nodes[0].ChangeStatus)
		assert.Equal(t, 1, diff.Summary.Added)
		assert.Equal(t, "one new concept", diff.Summary.SemanticSummary)
	})

	t.Run("bare payload", func(t *testing.T) {
		in := `
nodes:
  - id: N
    changeStatus: modified
`
		diff, err := DecodeDiff(strings.NewReader(in), FormatYAML)
		require.NoError(t, err)
		require.Len(t, diff.Diff.Nodes, 1)
		assert.Equal(t, graph.StatusModified, diff.Diff.Nodes[0].ChangeStatus)
		assert.Equal(t, graph.ShapeOverlay, graph.ClassifyDiff(&diff.Diff))
	})
}

func TestDecodeHistory(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		format Format
	}{
		{"json list", `[{"id": "v2"}, {"id": "v1"}]`, FormatJSON},
		{"json object", `{"versions": [{"id": "v2"}, {"id": "v1"}]}`, FormatJSON},
		{"yaml list", "- id: v2\n- id: v1\n", FormatYAML},
		{"yaml object", "versions:\n  - id: v2\n  - id: v1\n", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			versions, err := DecodeHistory(strings.NewReader(tt.in), tt.format)
			require.NoError(t, err)
			require.Len(t, versions, 2)
			assert.Equal(t, "v2", versions[0].ID, "order is preserved")
		})
	}
}
