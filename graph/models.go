package graph

import (
	"encoding/json"
	"time"
)

// ChangeStatus marks how a node or link changed between two graph versions
type ChangeStatus string

const (
	StatusUnchanged ChangeStatus = ""
	StatusAdded     ChangeStatus = "added"
	StatusModified  ChangeStatus = "modified"
	StatusRemoved   ChangeStatus = "removed"
)

// Node represents an entity in the knowledge graph
type Node struct {
	ID           string                 `json:"id" yaml:"id"`
	Name         string                 `json:"name,omitempty" yaml:"name,omitempty"`
	Label        string                 `json:"label,omitempty" yaml:"label,omitempty"`
	Type         string                 `json:"type" yaml:"type"` // Category tag ("concept", "document", ...)
	Description  string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	ChangeStatus ChangeStatus           `json:"changeStatus,omitempty" yaml:"changeStatus,omitempty"`
}

// clone returns a copy the engine may annotate without touching the input.
// Metadata is shared; the engine never writes to it.
func (n Node) clone() *Node {
	c := n
	return &c
}

// Link is a relationship as delivered by a snapshot or diff, before its
// endpoints have been resolved.
type Link struct {
	Source       NodeRef                `json:"source" yaml:"source"`
	Target       NodeRef                `json:"target" yaml:"target"`
	Type         string                 `json:"type,omitempty" yaml:"type,omitempty"`
	ChangeStatus ChangeStatus           `json:"changeStatus,omitempty" yaml:"changeStatus,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	IsAnchor     bool                   `json:"isAnchor,omitempty" yaml:"isAnchor,omitempty"`
}

// Edge is a link whose endpoints point at nodes of the current node set
type Edge struct {
	Source       *Node
	Target       *Node
	Type         string
	ChangeStatus ChangeStatus
	Metadata     map[string]interface{}
	IsAnchor     bool
	Weight       float64
}

type edgeJSON struct {
	Source       string                 `json:"source"`
	Target       string                 `json:"target"`
	Type         string                 `json:"type,omitempty"`
	ChangeStatus ChangeStatus           `json:"changeStatus,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	IsAnchor     bool                   `json:"isAnchor,omitempty"`
	Weight       float64                `json:"value"` // D3 uses "value"
}

// MarshalJSON encodes endpoints by node ID
func (e *Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wire())
}

func (e *Edge) wire() edgeJSON {
	out := edgeJSON{
		Type:         e.Type,
		ChangeStatus: e.ChangeStatus,
		Metadata:     e.Metadata,
		IsAnchor:     e.IsAnchor,
		Weight:       e.Weight,
	}
	if e.Source != nil {
		out.Source = e.Source.ID
	}
	if e.Target != nil {
		out.Target = e.Target.ID
	}
	return out
}

// Snapshot is the full graph state at one version
type Snapshot struct {
	Nodes    []Node                 `json:"nodes" yaml:"nodes"`
	Links    []Link                 `json:"links" yaml:"links"`
	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// DiffPayload describes what changed between two snapshot versions.
// Both lists non-empty means the payload replaces the snapshot; a node list
// alone overlays change status onto the snapshot.
type DiffPayload struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Links []Link `json:"links" yaml:"links"`
}

// DiffSummary carries aggregate counts for a version comparison
type DiffSummary struct {
	Added            int    `json:"added" yaml:"added"`
	Modified         int    `json:"modified" yaml:"modified"`
	Removed          int    `json:"removed" yaml:"removed"`
	TotalNodesBefore int    `json:"totalNodesBefore" yaml:"totalNodesBefore"`
	TotalNodesAfter  int    `json:"totalNodesAfter" yaml:"totalNodesAfter"`
	TotalLinksBefore int    `json:"totalLinksBefore" yaml:"totalLinksBefore"`
	TotalLinksAfter  int    `json:"totalLinksAfter" yaml:"totalLinksAfter"`
	SemanticSummary  string `json:"semanticSummary,omitempty" yaml:"semanticSummary,omitempty"`
}

// DiffResponse is the result of comparing two versions
type DiffResponse struct {
	Diff    DiffPayload `json:"diff" yaml:"diff"`
	Summary DiffSummary `json:"summary" yaml:"summary"`
}

// Version identifies one snapshot in a scope's history
type Version struct {
	ID        string    `json:"id" yaml:"id"`
	Label     string    `json:"label,omitempty" yaml:"label,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Graph is the render-ready output handed to the force-directed renderer
type Graph struct {
	Nodes []*RenderNode `json:"nodes"`
	Links []*RenderEdge `json:"links"`
	Meta  Meta          `json:"meta"`
}

// RenderNode is a node plus the transient flags of a single render pass
type RenderNode struct {
	*Node
	Selected bool    `json:"selected,omitempty"`
	InFocus  bool    `json:"inFocus,omitempty"`
	Opacity  float64 `json:"opacity"`
}

// RenderEdge is a resolved edge plus its emphasis for a single render pass
type RenderEdge struct {
	*Edge
	Emphasized bool    `json:"emphasized,omitempty"`
	Opacity    float64 `json:"opacity"`
}

// MarshalJSON flattens the edge and its render flags into one object
func (r *RenderEdge) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		edgeJSON
		Emphasized bool    `json:"emphasized,omitempty"`
		Opacity    float64 `json:"opacity"`
	}{r.Edge.wire(), r.Emphasized, r.Opacity})
}

// Meta contains metadata about a render pass
type Meta struct {
	GeneratedAt       time.Time              `json:"generated_at"`
	PassID            string                 `json:"pass_id"`
	Stats             Stats                  `json:"stats"`
	Config            map[string]string      `json:"config,omitempty"`
	NodeTypes         []NodeTypeInfo         `json:"node_types"`
	RelationshipTypes []RelationshipTypeInfo `json:"relationship_types"`
	Diff              *DiffSummary           `json:"diff,omitempty"`
	UsedDiffPayload   bool                   `json:"used_diff_payload"`
	SelectedNodeID    string                 `json:"selected_node_id,omitempty"`
	FocusedNodeID     string                 `json:"focused_node_id,omitempty"`
}

// NodeTypeInfo describes a node type for the renderer legend
type NodeTypeInfo struct {
	Type   string `json:"type"`
	Label  string `json:"label"`
	Color  string `json:"color,omitempty"`
	Count  int    `json:"count,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

// RelationshipTypeInfo describes a link type for the renderer legend
type RelationshipTypeInfo struct {
	Type         string   `json:"type"`
	Label        string   `json:"label"`
	Color        string   `json:"color,omitempty"`
	LinkDistance *float64 `json:"link_distance,omitempty"`
	LinkStrength *float64 `json:"link_strength,omitempty"`
	Count        int      `json:"count,omitempty"`
	Containment  bool     `json:"containment,omitempty"`
	ContentTrace bool     `json:"content_trace,omitempty"`
}

// Stats provides graph statistics
type Stats struct {
	TotalNodes   int `json:"total_nodes"`
	TotalEdges   int `json:"total_edges"`
	DroppedLinks int `json:"dropped_links,omitempty"`
	AnchorEdges  int `json:"anchor_edges,omitempty"`
	Orphans      int `json:"orphans,omitempty"`
}
