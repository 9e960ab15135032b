package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLinksScenarios(t *testing.T) {
	tests := []struct {
		name         string
		link         Link
		wantResolved int
		wantDropped  int
	}{
		{"both endpoints known", Link{Source: IDRef("A"), Target: IDRef("B")}, 1, 0},
		{"unknown target", Link{Source: IDRef("A"), Target: IDRef("Z")}, 0, 1},
		{"unknown source", Link{Source: IDRef("Y"), Target: IDRef("B")}, 0, 1},
		{"missing endpoint", Link{Source: IDRef("A")}, 0, 1},
		{"index endpoints", Link{Source: IndexRef(0), Target: IndexRef(1)}, 1, 0},
		{"object endpoint", Link{Source: ObjectRef(Node{ID: "A"}), Target: IDRef("B")}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := BuildIndex(newNodes("A", "B"), DefaultIndexOptions(), nil)
			res := ResolveLinks([]Link{tt.link}, idx)

			if len(res.Resolved) != tt.wantResolved {
				t.Errorf("resolved = %d, want %d", len(res.Resolved), tt.wantResolved)
			}
			if len(res.Dropped) != tt.wantDropped {
				t.Errorf("dropped = %d, want %d", len(res.Dropped), tt.wantDropped)
			}
		})
	}
}

func TestResolveLinksRecordsRawReferences(t *testing.T) {
	idx := BuildIndex(newNodes("A", "B"), DefaultIndexOptions(), nil)
	res := ResolveLinks([]Link{{Source: IDRef("A"), Target: IDRef("Z"), Type: "cites"}}, idx)

	require.Len(t, res.Dropped, 1)
	dropped := res.Dropped[0]
	assert.Equal(t, IDRef("A"), dropped.Source)
	assert.Equal(t, IDRef("Z"), dropped.Target)
	assert.Equal(t, "cites", dropped.Type)
	assert.True(t, dropped.SourceResolved)
	assert.False(t, dropped.TargetResolved)
}

func TestResolveLinksUsesLiveNodes(t *testing.T) {
	nodes := newNodes("concept_a", "b.md")
	idx := BuildIndex(nodes, DefaultIndexOptions(), nil)

	res := ResolveLinks([]Link{
		{Source: IDRef("a"), Target: IDRef("b"), Type: "contains", ChangeStatus: StatusAdded},
		{Source: IDRef("a"), Target: IDRef("b"), IsAnchor: true},
	}, idx)

	require.Len(t, res.Resolved, 2)
	edge := res.Resolved[0]
	assert.Same(t, nodes[0], edge.Source)
	assert.Same(t, nodes[1], edge.Target)
	assert.Equal(t, "contains", edge.Type)
	assert.Equal(t, StatusAdded, edge.ChangeStatus)
	assert.Equal(t, defaultLinkWeight, edge.Weight)

	assert.Equal(t, anchorLinkWeight, res.Resolved[1].Weight)
	assert.True(t, res.Resolved[1].IsAnchor)
}

func TestResolveLinksEmpty(t *testing.T) {
	res := ResolveLinks(nil, BuildIndex(nil, DefaultIndexOptions(), nil))
	assert.Empty(t, res.Resolved)
	assert.Empty(t, res.Dropped)
}
