package graph

// DroppedLink records a raw link whose endpoints could not both be resolved
type DroppedLink struct {
	Source         NodeRef `json:"source"`
	Target         NodeRef `json:"target"`
	Type           string  `json:"type,omitempty"`
	SourceResolved bool    `json:"source_resolved"`
	TargetResolved bool    `json:"target_resolved"`
}

// LinkResolution is the outcome of resolving a batch of raw links
type LinkResolution struct {
	Resolved []*Edge
	Dropped  []DroppedLink
}

// ResolveLinks turns raw link endpoints into node pointers. A link survives
// only when both endpoints resolve; otherwise it is reported as dropped with
// its original reference values.
func ResolveLinks(raw []Link, idx *ReconciliationIndex) LinkResolution {
	res := LinkResolution{
		Resolved: make([]*Edge, 0, len(raw)),
	}

	for _, link := range raw {
		source := idx.Resolve(link.Source)
		target := idx.Resolve(link.Target)

		if source == nil || target == nil {
			res.Dropped = append(res.Dropped, DroppedLink{
				Source:         link.Source,
				Target:         link.Target,
				Type:           link.Type,
				SourceResolved: source != nil,
				TargetResolved: target != nil,
			})
			continue
		}

		weight := defaultLinkWeight
		if link.IsAnchor {
			weight = anchorLinkWeight
		}

		res.Resolved = append(res.Resolved, &Edge{
			Source:       source,
			Target:       target,
			Type:         link.Type,
			ChangeStatus: link.ChangeStatus,
			Metadata:     link.Metadata,
			IsAnchor:     link.IsAnchor,
			Weight:       weight,
		})
	}

	return res
}

// endpointPair identifies an edge by its endpoints for deduplication
type endpointPair struct {
	source, target string
}

func edgeKey(source, target string) endpointPair {
	return endpointPair{source: source, target: target}
}
