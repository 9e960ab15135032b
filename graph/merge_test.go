package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSnapshot() Snapshot {
	return Snapshot{
		Nodes: []Node{{ID: "A", Name: "Alpha"}, {ID: "B"}, {ID: "C"}},
		Links: []Link{{Source: IDRef("A"), Target: IDRef("B"), Type: "contains"}},
	}
}

func TestClassifyDiff(t *testing.T) {
	tests := []struct {
		name string
		diff *DiffPayload
		want DiffShape
	}{
		{"nil", nil, ShapeNone},
		{"nodes and links", &DiffPayload{Nodes: []Node{{ID: "A"}}, Links: []Link{{}}}, ShapeFullReplacement},
		{"nodes only", &DiffPayload{Nodes: []Node{{ID: "A"}}}, ShapeOverlay},
		{"links only", &DiffPayload{Links: []Link{{}}}, ShapeAmbiguous},
		{"empty", &DiffPayload{}, ShapeAmbiguous},
	}

	for _, tt := range tests {
		if got := ClassifyDiff(tt.diff); got != tt.want {
			t.Errorf("%s: ClassifyDiff() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestMergeWithoutDiffPassesSnapshotThrough(t *testing.T) {
	snap := baseSnapshot()
	res := MergeDiff(snap, nil, DefaultIndexOptions())

	assert.Equal(t, ShapeNone, res.Shape)
	assert.False(t, res.UsedDiffPayload)
	require.Len(t, res.Nodes, 3)
	assert.Equal(t, snap.Links, res.Links)

	// Annotating the copy must not touch the input
	res.Nodes[0].ChangeStatus = StatusAdded
	assert.Equal(t, StatusUnchanged, snap.Nodes[0].ChangeStatus)
}

func TestMergeFullReplacement(t *testing.T) {
	diff := &DiffPayload{
		Nodes: []Node{
			{ID: "A", ChangeStatus: StatusModified},
			{ID: "concept_B", ChangeStatus: StatusAdded},
			{ID: "C", ChangeStatus: StatusRemoved},
		},
		Links: []Link{
			{Source: IDRef("A"), Target: IDRef("concept_B"), Type: "contains"},
			{Source: IDRef("A"), Target: IDRef("B"), Type: "cites"}, // same pair after resolution
			{Source: IDRef("B"), Target: IDRef("A"), Type: "cites"}, // reversed pair is distinct
			{Source: IDRef("A"), Target: IDRef("C"), ChangeStatus: StatusRemoved},
		},
	}

	res := MergeDiff(baseSnapshot(), diff, DefaultIndexOptions())

	assert.Equal(t, ShapeFullReplacement, res.Shape)
	assert.True(t, res.UsedDiffPayload)

	ids := make([]string, len(res.Nodes))
	for i, n := range res.Nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"A", "concept_B"}, ids)

	require.Len(t, res.Links, 2)
	assert.Equal(t, "contains", res.Links[0].Type, "first occurrence wins")
	assert.Equal(t, IDRef("B"), res.Links[1].Source)
	assert.Equal(t, 1, res.DuplicateLinks)
}

func TestMergeFullReplacementHasNoDuplicateEdges(t *testing.T) {
	diff := &DiffPayload{
		Nodes: []Node{{ID: "x.md"}, {ID: "y"}, {ID: "z"}},
		Links: []Link{
			{Source: IDRef("x"), Target: IDRef("y")},
			{Source: IDRef("x.md"), Target: IDRef("y")},
			{Source: IndexRef(0), Target: IDRef("y.md")},
			{Source: IDRef("y"), Target: IDRef("z")},
			{Source: IDRef("y"), Target: IDRef("z")},
		},
	}

	res := MergeDiff(Snapshot{}, diff, DefaultIndexOptions())
	idx := BuildIndex(res.Nodes, DefaultIndexOptions(), nil)
	edges := ResolveLinks(res.Links, idx).Resolved

	seen := make(map[endpointPair]bool)
	for _, e := range edges {
		key := edgeKey(e.Source.ID, e.Target.ID)
		if seen[key] {
			t.Errorf("duplicate edge %s -> %s", key.source, key.target)
		}
		seen[key] = true
	}
	assert.Len(t, edges, 2)
}

func TestMergeFullReplacementKeepsIDsWithSeparators(t *testing.T) {
	diff := &DiffPayload{
		Nodes: []Node{{ID: "a|b"}, {ID: "c"}, {ID: "a"}, {ID: "b|c"}},
		Links: []Link{
			{Source: IDRef("a|b"), Target: IDRef("c")},
			{Source: IDRef("a"), Target: IDRef("b|c")},
		},
	}

	res := MergeDiff(Snapshot{}, diff, DefaultIndexOptions())

	assert.Len(t, res.Links, 2)
	assert.Zero(t, res.DuplicateLinks)
}

func TestMergeFullReplacementIndexRefsSkipRemovedNodes(t *testing.T) {
	diff := &DiffPayload{
		Nodes: []Node{
			{ID: "R", ChangeStatus: StatusRemoved},
			{ID: "A"},
			{ID: "B", ChangeStatus: StatusAdded},
		},
		Links: []Link{
			{Source: IndexRef(1), Target: IndexRef(2), Type: "contains"},
			{Source: IndexRef(0), Target: IndexRef(1), Type: "cites"},
		},
	}

	res := MergeDiff(Snapshot{}, diff, DefaultIndexOptions())
	require.Len(t, res.Nodes, 2)

	idx := BuildIndex(res.Nodes, DefaultIndexOptions(), nil).WithPositions(res.Positions)
	links := ResolveLinks(res.Links, idx)

	require.Len(t, links.Resolved, 1)
	assert.Equal(t, "A", links.Resolved[0].Source.ID)
	assert.Equal(t, "B", links.Resolved[0].Target.ID)

	// Position 0 was removed, so the link into it is dropped rather than re-pointed
	require.Len(t, links.Dropped, 1)
	assert.Equal(t, IndexRef(0), links.Dropped[0].Source)
	assert.False(t, links.Dropped[0].SourceResolved)
	assert.True(t, links.Dropped[0].TargetResolved)
}

func TestRenderIndexRefsAfterRemovedNode(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig(), nil)
	diff := &DiffResponse{Diff: DiffPayload{
		Nodes: []Node{{ID: "R", ChangeStatus: StatusRemoved}, {ID: "A"}, {ID: "B"}},
		Links: []Link{{Source: IndexRef(1), Target: IndexRef(2), Type: "contains"}},
	}}

	g, diag := engine.Render(RenderInput{Diff: diff})

	require.Len(t, g.Links, 1)
	assert.Equal(t, "A", g.Links[0].Source.ID)
	assert.Equal(t, "B", g.Links[0].Target.ID)
	assert.Empty(t, diag.DroppedLinks)
}

func TestMergeOverlay(t *testing.T) {
	diff := &DiffPayload{
		Nodes: []Node{
			{ID: "A", ChangeStatus: StatusModified},
			{ID: "unknown", Name: "C", ChangeStatus: StatusAdded}, // matched by name
			{ID: "B", ChangeStatus: StatusRemoved},                // not applied
			{ID: "Z", ChangeStatus: StatusAdded},                  // not in snapshot
		},
	}
	snap := baseSnapshot()

	res := MergeDiff(snap, diff, DefaultIndexOptions())

	assert.Equal(t, ShapeOverlay, res.Shape)
	assert.False(t, res.UsedDiffPayload)
	require.Len(t, res.Nodes, 3)

	status := make(map[string]ChangeStatus)
	for _, n := range res.Nodes {
		status[n.ID] = n.ChangeStatus
	}
	assert.Equal(t, map[string]ChangeStatus{
		"A": StatusModified,
		"B": StatusUnchanged,
		"C": StatusAdded,
	}, status)

	assert.Equal(t, snap.Links, res.Links)
	for _, n := range snap.Nodes {
		assert.Equal(t, StatusUnchanged, n.ChangeStatus, "snapshot node %s mutated", n.ID)
	}
}

func TestMergeAmbiguousFallsBackToSnapshot(t *testing.T) {
	diff := &DiffPayload{Links: []Link{{Source: IDRef("A"), Target: IDRef("Q")}}}
	res := MergeDiff(baseSnapshot(), diff, DefaultIndexOptions())

	assert.Equal(t, ShapeAmbiguous, res.Shape)
	assert.False(t, res.UsedDiffPayload)
	assert.Len(t, res.Nodes, 3)
	assert.Len(t, res.Links, 1)
}
