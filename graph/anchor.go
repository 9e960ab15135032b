package graph

// AnchorResult lists the synthetic edges created for stranded added nodes
type AnchorResult struct {
	Edges    []*Edge
	Orphans  []string // IDs of added nodes that had no resolved edge
	AnchorID string   // Node the orphans were attached to
}

// AnchorOrphans attaches every added node without a resolved edge to one
// node, so it is not rendered adrift. The anchor is the first connected node
// in node order, else the first node that is not an orphan, else the first node.
// Anchor edges are flagged IsAnchor and typed anchorType (AnchorLinkType when empty).
func AnchorOrphans(nodes []*Node, edges []*Edge, anchorType string) AnchorResult {
	var res AnchorResult
	if len(nodes) == 0 {
		return res
	}
	if anchorType == "" {
		anchorType = AnchorLinkType
	}

	connected := make(map[string]bool, len(nodes))
	for _, e := range edges {
		if e.Source != nil {
			connected[e.Source.ID] = true
		}
		if e.Target != nil {
			connected[e.Target.ID] = true
		}
	}

	var orphans []*Node
	for _, n := range nodes {
		if n.ChangeStatus == StatusAdded && !connected[n.ID] {
			orphans = append(orphans, n)
		}
	}
	if len(orphans) == 0 {
		return res
	}

	anchor := pickAnchor(nodes, connected, orphans)
	res.AnchorID = anchor.ID

	for _, orphan := range orphans {
		res.Orphans = append(res.Orphans, orphan.ID)
		target := anchor
		if orphan == anchor {
			// Every node is an orphan: the anchor hangs off the next orphan instead
			if len(orphans) < 2 {
				continue
			}
			target = orphans[1]
		}
		res.Edges = append(res.Edges, &Edge{
			Source:   orphan,
			Target:   target,
			Type:     anchorType,
			IsAnchor: true,
			Weight:   anchorLinkWeight,
		})
	}

	return res
}

// pickAnchor prefers a connected node, then any node that is not itself an orphan
func pickAnchor(nodes []*Node, connected map[string]bool, orphans []*Node) *Node {
	for _, n := range nodes {
		if connected[n.ID] {
			return n
		}
	}
	isOrphan := make(map[*Node]bool, len(orphans))
	for _, o := range orphans {
		isOrphan[o] = true
	}
	for _, n := range nodes {
		if !isOrphan[n] {
			return n
		}
	}
	return nodes[0]
}
