package graph

import (
	"sort"
)

// RelationshipDefinition holds physics and display metadata for a relationship type.
// Definitions come from the [graph.relationship_types] config table.
type RelationshipDefinition struct {
	PredicateName string   `json:"predicate_name" mapstructure:"-"`                      // e.g., "contains", "cites"
	DisplayLabel  string   `json:"display_label" mapstructure:"label"`                   // Human-readable label
	Color         string   `json:"color,omitempty" mapstructure:"color"`                 // Optional link color override
	LinkDistance  *float64 `json:"link_distance,omitempty" mapstructure:"link_distance"` // D3 force distance (nil = use default)
	LinkStrength  *float64 `json:"link_strength,omitempty" mapstructure:"link_strength"` // D3 force strength (nil = use default)
	Deprecated    bool     `json:"deprecated" mapstructure:"deprecated"`
}

// collectRelationshipTypeInfo collects information about relationship types present in the graph.
// Anchor edges are excluded; they are layout scaffolding, not relationships.
func collectRelationshipTypeInfo(edges []*Edge, relationshipDefinitions map[string]RelationshipDefinition, rules FocusRules) []RelationshipTypeInfo {
	// Count edges by type
	typeCounts := make(map[string]int)
	for _, e := range edges {
		if e.IsAnchor {
			continue
		}
		typeCounts[e.Type]++
	}

	var relationshipTypes []RelationshipTypeInfo
	for linkType, count := range typeCounts {
		info := RelationshipTypeInfo{
			Type:         linkType,
			Label:        linkType, // Default to type name if no definition
			Count:        count,
			Containment:  linkType == rules.ContainmentType,
			ContentTrace: rules.ContentTraceTypes[linkType],
		}

		if relDef, ok := relationshipDefinitions[linkType]; ok {
			if relDef.DisplayLabel != "" {
				info.Label = relDef.DisplayLabel
			}
			info.Color = relDef.Color
			info.LinkDistance = relDef.LinkDistance
			info.LinkStrength = relDef.LinkStrength
		}

		relationshipTypes = append(relationshipTypes, info)
	}

	sort.Slice(relationshipTypes, func(i, j int) bool {
		if relationshipTypes[i].Count != relationshipTypes[j].Count {
			return relationshipTypes[i].Count > relationshipTypes[j].Count
		}
		return relationshipTypes[i].Type < relationshipTypes[j].Type
	})

	return relationshipTypes
}
