package graph

// FocusRules decide which nodes and edges stay emphasized around a focused node
type FocusRules struct {
	ContainmentType   string          // Relation followed from the focused node
	ContentTraceTypes map[string]bool // Relations kept visible when they touch the focus set
	DimmedNodeOpacity float64
	DimmedEdgeOpacity float64
}

// DefaultFocusRules returns the containment and content-trace defaults
func DefaultFocusRules() FocusRules {
	return NewFocusRules(DefaultContainmentType, DefaultContentTraceTypes, DefaultDimmedNodeOpacity, DefaultDimmedEdgeOpacity)
}

// NewFocusRules builds rules from configured values
func NewFocusRules(containment string, contentTrace []string, dimmedNode, dimmedEdge float64) FocusRules {
	traces := make(map[string]bool, len(contentTrace))
	for _, t := range contentTrace {
		traces[t] = true
	}
	return FocusRules{
		ContainmentType:   containment,
		ContentTraceTypes: traces,
		DimmedNodeOpacity: dimmedNode,
		DimmedEdgeOpacity: dimmedEdge,
	}
}

// ComputeFocus returns the focused node plus every target of a containment
// edge leaving it. An empty id yields an empty set.
func ComputeFocus(focusedID string, edges []*Edge, containmentType string) map[string]bool {
	set := make(map[string]bool)
	if focusedID == "" {
		return set
	}
	set[focusedID] = true

	for _, e := range edges {
		if e.IsAnchor || e.Type != containmentType || e.Source == nil || e.Target == nil {
			continue
		}
		if e.Source.ID == focusedID {
			set[e.Target.ID] = true
		}
	}
	return set
}

// IsEmphasized reports whether an edge stays highlighted while focusedID is
// focused. Anchor edges never count as relationships.
func (r FocusRules) IsEmphasized(e *Edge, focusedID string, inFocus map[string]bool) bool {
	if focusedID == "" || e.IsAnchor || e.Source == nil || e.Target == nil {
		return false
	}
	if r.ContentTraceTypes[e.Type] && (inFocus[e.Source.ID] || inFocus[e.Target.ID]) {
		return true
	}
	return e.Type == r.ContainmentType && e.Source.ID == focusedID
}

// NodeOpacity returns full opacity unless focus is active and the node is outside it
func (r FocusRules) NodeOpacity(id, focusedID string, inFocus map[string]bool) float64 {
	if focusedID == "" || inFocus[id] {
		return fullOpacity
	}
	return r.DimmedNodeOpacity
}

// EdgeOpacity returns full opacity unless focus is active and the edge is not emphasized
func (r FocusRules) EdgeOpacity(emphasized bool, focusedID string) float64 {
	if focusedID == "" || emphasized {
		return fullOpacity
	}
	return r.DimmedEdgeOpacity
}

// FocusState holds the focused node id; empty means no focus.
//
// Transitions: Click sets focus, ClearBackground clears it, Reconcile clears
// it when the node disappears from the node set. Nothing else changes it.
type FocusState struct {
	FocusedNodeID string `json:"focused_node_id,omitempty"`
}

// Active reports whether a node is focused
func (s FocusState) Active() bool {
	return s.FocusedNodeID != ""
}

// Click focuses a node. Clicking the focused node again changes nothing.
func (s *FocusState) Click(nodeID string) {
	if nodeID == "" {
		return
	}
	s.FocusedNodeID = nodeID
}

// ClearBackground drops focus, as a click on empty canvas does
func (s *FocusState) ClearBackground() {
	s.FocusedNodeID = ""
}

// Reconcile clears focus when the focused node is absent from nodes.
// It returns true when focus was orphaned and cleared.
func (s *FocusState) Reconcile(nodes []*Node) bool {
	if s.FocusedNodeID == "" {
		return false
	}
	for _, n := range nodes {
		if n.ID == s.FocusedNodeID {
			return false
		}
	}
	s.FocusedNodeID = ""
	return true
}
