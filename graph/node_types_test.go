package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/teranos/kgmap/internal/util"
)

func TestCollectNodeTypeInfo(t *testing.T) {
	nodes := []*Node{
		{ID: "a", Type: "concept"},
		{ID: "b", Type: "concept"},
		{ID: "c", Type: "document"},
		{ID: "d", Type: "author"},
		{ID: "e"},
	}
	defs := map[string]TypeDefinition{
		"concept":  {TypeName: "concept", DisplayColor: "#3498db", DisplayLabel: "Concept"},
		"document": {TypeName: "document", DisplayLabel: "Document"},
	}

	got := collectNodeTypeInfo(nodes, defs, map[string]bool{"document": true})

	want := []NodeTypeInfo{
		{Type: "concept", Label: "Concept", Color: "#3498db", Count: 2},
		{Type: "", Label: defaultUntypedLabel, Color: defaultUntypedColor, Count: 1},
		{Type: "author", Label: "author", Color: defaultUntypedColor, Count: 1},
		{Type: "document", Label: "Document", Color: defaultUntypedColor, Count: 1, Hidden: true},
	}
	assert.Equal(t, want, got)
}

func TestCollectNodeTypeInfoEmpty(t *testing.T) {
	if got := collectNodeTypeInfo(nil, nil, nil); len(got) != 0 {
		t.Errorf("collectNodeTypeInfo(nil) = %v, want empty", got)
	}
}

func TestCollectRelationshipTypeInfo(t *testing.T) {
	a, b, c := &Node{ID: "a"}, &Node{ID: "b"}, &Node{ID: "c"}
	edges := []*Edge{
		{Source: a, Target: b, Type: "contains"},
		{Source: a, Target: c, Type: "contains"},
		{Source: b, Target: c, Type: "cites"},
		{Source: c, Target: a, Type: AnchorLinkType, IsAnchor: true},
	}
	defs := map[string]RelationshipDefinition{
		"cites": {PredicateName: "cites", DisplayLabel: "Cites", Color: "#e67e22", LinkDistance: util.Ptr(80.0)},
	}
	rules := NewFocusRules("contains", []string{"cites"}, DefaultDimmedNodeOpacity, DefaultDimmedEdgeOpacity)

	got := collectRelationshipTypeInfo(edges, defs, rules)

	want := []RelationshipTypeInfo{
		{Type: "contains", Label: "contains", Count: 2, Containment: true},
		{Type: "cites", Label: "Cites", Color: "#e67e22", LinkDistance: util.Ptr(80.0), Count: 1, ContentTrace: true},
	}
	assert.Equal(t, want, got)
}
