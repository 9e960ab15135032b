package graph

import (
	"sort"
)

// TypeDefinition holds display metadata for a node type.
// Definitions come from the [graph.node_types] config table.
type TypeDefinition struct {
	TypeName     string  `json:"type_name" mapstructure:"-"`               // e.g., "concept", "document"
	DisplayColor string  `json:"display_color" mapstructure:"color"`       // Hex color or rgba() string
	DisplayLabel string  `json:"display_label" mapstructure:"label"`       // Human-readable label
	Deprecated   bool    `json:"deprecated" mapstructure:"deprecated"`     // Whether this type is deprecated
	Opacity      float64 `json:"opacity,omitempty" mapstructure:"opacity"` // Optional opacity (default 1.0)
}

// collectNodeTypeInfo collects information about node types present in the graph.
// Types marked hidden in the filter are still listed so they can be toggled back on.
// Returns a list of node type metadata including count and color for each type.
func collectNodeTypeInfo(nodes []*Node, typeDefinitions map[string]TypeDefinition, hidden map[string]bool) []NodeTypeInfo {
	// Count nodes by type
	typeCounts := make(map[string]int)
	for _, node := range nodes {
		typeCounts[node.Type]++
	}

	var nodeTypes []NodeTypeInfo
	for nodeType, count := range typeCounts {
		var color, label string

		if typeDef, ok := typeDefinitions[nodeType]; ok {
			color = typeDef.DisplayColor
			label = typeDef.DisplayLabel
		}
		if color == "" {
			color = defaultUntypedColor
		}
		if label == "" {
			label = nodeType // Use raw type string as label
		}
		if nodeType == "" {
			label = defaultUntypedLabel
		}

		nodeTypes = append(nodeTypes, NodeTypeInfo{
			Type:   nodeType,
			Label:  label,
			Color:  color,
			Count:  count,
			Hidden: hidden[nodeType],
		})
	}

	// Most common types appear first in the legend; ties sort by name so
	// output is stable across passes
	sort.Slice(nodeTypes, func(i, j int) bool {
		if nodeTypes[i].Count != nodeTypes[j].Count {
			return nodeTypes[i].Count > nodeTypes[j].Count
		}
		return nodeTypes[i].Type < nodeTypes[j].Type
	})

	return nodeTypes
}
