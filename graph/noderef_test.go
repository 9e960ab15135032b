package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNodeRefDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want NodeRef
	}{
		{"string", `"concept_a"`, IDRef("concept_a")},
		{"integer", `3`, IndexRef(3)},
		{"integral float", `2.0`, IndexRef(2)},
		{"fractional number", `1.5`, NodeRef{}},
		{"null", `null`, NodeRef{}},
		{"object", `{"id":"a","name":"Alpha"}`, ObjectRef(Node{ID: "a", Name: "Alpha"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got NodeRef
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNodeRefDecodeJSONRejectsGarbage(t *testing.T) {
	var got NodeRef
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &got))
}

func TestLinkDecodeMixedEndpoints(t *testing.T) {
	data := `{"nodes":[{"id":"A","type":"concept"},{"id":"B","type":"concept"}],
		"links":[{"source":"A","target":1,"type":"contains"},{"source":{"id":"B"},"type":"cites"}]}`

	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	require.Len(t, snap.Links, 2)

	assert.Equal(t, IDRef("A"), snap.Links[0].Source)
	assert.Equal(t, IndexRef(1), snap.Links[0].Target)
	assert.Equal(t, RefNode, snap.Links[1].Source.Kind)
	assert.True(t, snap.Links[1].Target.IsZero(), "absent endpoint decodes as none")
}

func TestNodeRefDecodeYAML(t *testing.T) {
	data := `
links:
  - source: A
    target: 1
  - source: {id: B, name: Beta}
    target: ~
  - source: "7"
    target: 0.5
`
	var snap Snapshot
	require.NoError(t, yaml.Unmarshal([]byte(data), &snap))
	require.Len(t, snap.Links, 3)

	assert.Equal(t, IDRef("A"), snap.Links[0].Source)
	assert.Equal(t, IndexRef(1), snap.Links[0].Target)
	assert.Equal(t, ObjectRef(Node{ID: "B", Name: "Beta"}), snap.Links[1].Source)
	assert.True(t, snap.Links[1].Target.IsZero())
	assert.Equal(t, IDRef("7"), snap.Links[2].Source, "quoted numbers stay strings")
	assert.True(t, snap.Links[2].Target.IsZero())
}

func TestNodeRefString(t *testing.T) {
	tests := []struct {
		ref  NodeRef
		want string
	}{
		{IDRef("a"), "a"},
		{IndexRef(4), "#4"},
		{ObjectRef(Node{ID: "x"}), "x"},
		{ObjectRef(Node{Name: "Named"}), "Named"},
		{NodeRef{}, "<none>"},
	}

	for _, tt := range tests {
		if got := tt.ref.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEdgeEncodesEndpointIDs(t *testing.T) {
	a, b := &Node{ID: "a"}, &Node{ID: "b"}
	re := &RenderEdge{
		Edge:       &Edge{Source: a, Target: b, Type: AnchorLinkType, IsAnchor: true, Weight: anchorLinkWeight},
		Emphasized: false,
		Opacity:    DefaultDimmedEdgeOpacity,
	}

	data, err := json.Marshal(re)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "a", out["source"])
	assert.Equal(t, "b", out["target"])
	assert.Equal(t, true, out["isAnchor"])
	assert.Equal(t, anchorLinkWeight, out["value"])
	assert.Equal(t, DefaultDimmedEdgeOpacity, out["opacity"])
	assert.NotContains(t, out, "emphasized")
}
