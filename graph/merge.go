package graph

// DiffShape classifies how a diff payload was applied
type DiffShape string

const (
	ShapeNone            DiffShape = "none"             // No diff supplied
	ShapeFullReplacement DiffShape = "full_replacement" // Diff nodes and links replace the snapshot
	ShapeOverlay         DiffShape = "overlay"          // Diff node status annotates the snapshot
	ShapeAmbiguous       DiffShape = "ambiguous"        // Diff ignored, snapshot shown as-is
)

// MergeResult is the node and link set chosen for a render pass
type MergeResult struct {
	Nodes           []*Node
	Links           []Link
	UsedDiffPayload bool
	Shape           DiffShape
	DuplicateLinks  int // Parallel links removed from a full-replacement payload

	// Positions maps a full-replacement payload's node positions to the kept
	// nodes, nil where the node was removed. Index endpoints resolve against it.
	Positions []*Node
}

// ClassifyDiff decides which shape a diff payload has
func ClassifyDiff(diff *DiffPayload) DiffShape {
	switch {
	case diff == nil:
		return ShapeNone
	case len(diff.Nodes) > 0 && len(diff.Links) > 0:
		return ShapeFullReplacement
	case len(diff.Nodes) > 0:
		return ShapeOverlay
	default:
		return ShapeAmbiguous
	}
}

// MergeDiff picks the node and link set for a render pass. Input nodes are
// copied before annotation and no link is ever fabricated here; added nodes
// left without links are handled by AnchorOrphans. Identifier collisions
// are reported by the render pass's own index, not here.
func MergeDiff(snapshot Snapshot, diff *DiffPayload, opts IndexOptions) MergeResult {
	shape := ClassifyDiff(diff)

	switch shape {
	case ShapeFullReplacement:
		return mergeFullReplacement(diff, opts)
	case ShapeOverlay:
		return mergeOverlay(snapshot, diff, opts)
	default:
		return MergeResult{
			Nodes: cloneNodes(snapshot.Nodes),
			Links: snapshot.Links,
			Shape: shape,
		}
	}
}

// mergeFullReplacement sources everything from the diff, minus removed
// entries and parallel duplicates
func mergeFullReplacement(diff *DiffPayload, opts IndexOptions) MergeResult {
	nodes := make([]*Node, 0, len(diff.Nodes))
	positions := make([]*Node, len(diff.Nodes))
	for i, n := range diff.Nodes {
		if n.ChangeStatus == StatusRemoved {
			continue
		}
		c := n.clone()
		nodes = append(nodes, c)
		positions[i] = c
	}

	// Endpoints are compared after resolution so "A" and "concept_A" collapse
	idx := BuildIndex(nodes, opts, nil).WithPositions(positions)
	endpointKey := func(ref NodeRef) string {
		if n := idx.Resolve(ref); n != nil {
			return n.ID
		}
		return ref.String()
	}

	seen := make(map[endpointPair]bool, len(diff.Links))
	links := make([]Link, 0, len(diff.Links))
	duplicates := 0
	for _, l := range diff.Links {
		if l.ChangeStatus == StatusRemoved {
			continue
		}
		key := edgeKey(endpointKey(l.Source), endpointKey(l.Target))
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true
		links = append(links, l)
	}

	return MergeResult{
		Nodes:           nodes,
		Links:           links,
		UsedDiffPayload: true,
		Shape:           ShapeFullReplacement,
		DuplicateLinks:  duplicates,
		Positions:       positions,
	}
}

// mergeOverlay annotates snapshot nodes with the status of matching diff nodes
func mergeOverlay(snapshot Snapshot, diff *DiffPayload, opts IndexOptions) MergeResult {
	nodes := cloneNodes(snapshot.Nodes)
	idx := BuildIndex(nodes, opts, nil)

	for _, d := range diff.Nodes {
		// A removed node does not belong to the current version at all
		if d.ChangeStatus == StatusRemoved || d.ChangeStatus == StatusUnchanged {
			continue
		}
		target := idx.ResolveID(d.ID)
		if target == nil && d.Name != "" {
			target = idx.ResolveID(d.Name)
		}
		if target != nil {
			target.ChangeStatus = d.ChangeStatus
		}
	}

	return MergeResult{
		Nodes: nodes,
		Links: snapshot.Links,
		Shape: ShapeOverlay,
	}
}

func cloneNodes(in []Node) []*Node {
	out := make([]*Node, len(in))
	for i := range in {
		out[i] = in[i].clone()
	}
	return out
}
