package graph

const (
	// Link weight constants
	defaultLinkWeight = 1.0 // Weight for resolved semantic links
	anchorLinkWeight  = 0.1 // Anchor edges pull weakly in the force layout

	// AnchorLinkType marks synthetic edges that keep orphans attached
	AnchorLinkType = "_anchor"

	// DefaultContainmentType is the relation followed when expanding focus
	DefaultContainmentType = "contains"

	// DefaultContentSuffix is the content-file suffix ids may carry or omit
	DefaultContentSuffix = ".md"

	// Opacity for nodes and edges outside the focus neighborhood
	DefaultDimmedNodeOpacity = 0.15
	DefaultDimmedEdgeOpacity = 0.08
	fullOpacity              = 1.0

	// Effective status of nodes and edges that carry none
	statusActive   = "active"
	statusAccepted = "accepted" // legacy spelling of active

	// Default color/label for types without a configured style
	defaultUntypedColor = "rgba(149, 165, 166, 0.3)" // Transparent gray
	defaultUntypedLabel = "Untyped"
)

// DefaultTypePrefixes are type prefixes that ids are written with or without
var DefaultTypePrefixes = []string{"concept_", "concept:", "node_", "node:", "entity_", "doc_"}

// DefaultContentTraceTypes are relations that stay emphasized around a focused node
var DefaultContentTraceTypes = []string{"derived_from", "supports", "cites", "traces_to"}
