package graph

import (
	"strings"
)

// StatusFilter selects nodes by their effective review status
type StatusFilter string

const (
	StatusFilterActive   StatusFilter = "active"
	StatusFilterAll      StatusFilter = "all"
	StatusFilterPending  StatusFilter = "pending"
	StatusFilterRejected StatusFilter = "rejected"
)

// ParseStatusFilter maps a string to a StatusFilter; ok is false for unknown values
func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case StatusFilterActive, StatusFilterAll, StatusFilterPending, StatusFilterRejected:
		return f, true
	case "":
		return StatusFilterActive, true
	default:
		return StatusFilterActive, false
	}
}

// FilterState holds the view's filter selections. The zero value shows
// every type, active nodes only, and no search.
type FilterState struct {
	TypeVisibility map[string]bool `json:"type_visibility,omitempty"` // false hides a type; absent types are visible
	StatusFilter   StatusFilter    `json:"status_filter,omitempty"`
	SearchQuery    string          `json:"search_query,omitempty"`
}

// HiddenTypes returns the set of types explicitly marked hidden
func (f FilterState) HiddenTypes() map[string]bool {
	hidden := make(map[string]bool)
	for t, visible := range f.TypeVisibility {
		if !visible {
			hidden[t] = true
		}
	}
	return hidden
}

// FilterResult is the visible node and edge set after all filter stages
type FilterResult struct {
	Nodes          []*Node
	Edges          []*Edge
	SelectedNodeID string // Set when the search matched exactly one node
}

// ApplyFilters narrows nodes and edges by type, then status, then search.
// Edges are pruned after every stage so no edge outlives an endpoint.
func ApplyFilters(nodes []*Node, edges []*Edge, state FilterState) FilterResult {
	nodes, edges = FilterByType(nodes, edges, state.TypeVisibility)
	nodes, edges = FilterByStatus(nodes, edges, state.StatusFilter)
	nodes, edges, selected := FilterBySearch(nodes, edges, state.SearchQuery)

	return FilterResult{
		Nodes:          nodes,
		Edges:          edges,
		SelectedNodeID: selected,
	}
}

// FilterByType drops nodes whose type is explicitly marked hidden
func FilterByType(nodes []*Node, edges []*Edge, visibility map[string]bool) ([]*Node, []*Edge) {
	kept := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if visible, ok := visibility[n.Type]; ok && !visible {
			continue
		}
		kept = append(kept, n)
	}
	return kept, PruneEdges(kept, edges)
}

// FilterByStatus keeps nodes whose effective status matches the filter.
// Edges must keep both endpoints and, when they carry a status of their
// own, match the same rule. Anchor edges carry no status.
func FilterByStatus(nodes []*Node, edges []*Edge, filter StatusFilter) ([]*Node, []*Edge) {
	if filter == StatusFilterAll {
		return nodes, PruneEdges(nodes, edges)
	}
	if filter == "" {
		filter = StatusFilterActive
	}

	kept := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if statusMatches(effectiveStatus(n.Metadata), filter) {
			kept = append(kept, n)
		}
	}

	pruned := PruneEdges(kept, edges)
	out := pruned[:0]
	for _, e := range pruned {
		if e.IsAnchor {
			out = append(out, e)
			continue
		}
		if status, ok := metadataStatus(e.Metadata); ok && !statusMatches(status, filter) {
			continue
		}
		out = append(out, e)
	}
	return kept, out
}

// FilterBySearch keeps nodes whose id, name, label or description contains
// the query, ignoring case. A blank query keeps everything. When exactly one
// node matches its id is returned as the selection.
func FilterBySearch(nodes []*Node, edges []*Edge, query string) ([]*Node, []*Edge, string) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nodes, PruneEdges(nodes, edges), ""
	}

	kept := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if matchesSearch(n, q) {
			kept = append(kept, n)
		}
	}

	selected := ""
	if len(kept) == 1 {
		selected = kept[0].ID
	}
	return kept, PruneEdges(kept, edges), selected
}

// PruneEdges returns the edges whose endpoints are both in nodes
func PruneEdges(nodes []*Node, edges []*Edge) []*Edge {
	visible := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		visible[n.ID] = true
	}

	out := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		if e.Source == nil || e.Target == nil {
			continue
		}
		if visible[e.Source.ID] && visible[e.Target.ID] {
			out = append(out, e)
		}
	}
	return out
}

func matchesSearch(n *Node, q string) bool {
	for _, field := range []string{n.ID, n.Name, n.Label, n.Description} {
		if field != "" && strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// effectiveStatus reads metadata.status, defaulting to active
func effectiveStatus(metadata map[string]interface{}) string {
	if status, ok := metadataStatus(metadata); ok {
		return status
	}
	return statusActive
}

func metadataStatus(metadata map[string]interface{}) (string, bool) {
	s, ok := metadata["status"].(string)
	if !ok || s == "" {
		return "", false
	}
	return strings.ToLower(s), true
}

func statusMatches(status string, filter StatusFilter) bool {
	if filter == StatusFilterAll {
		return true
	}
	if filter == StatusFilterActive && status == statusAccepted {
		return true
	}
	return status == string(filter)
}
