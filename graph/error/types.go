package grapherror

import (
	"time"

	"github.com/teranos/kgmap/errors"
)

// GraphError is a structured render diagnostic. The engine never returns
// these to abort a pass; they are collected and logged.
type GraphError struct {
	Err         error                  // Underlying error
	Category    Category               // Main category
	Subcategory string                 // Optional subcategory
	UserMessage string                 // User-friendly message for UI display
	Context     map[string]interface{} // Additional context for debugging
	Timestamp   time.Time              // When the error occurred
}

// Error implements the error interface
func (e *GraphError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *GraphError) Unwrap() error {
	return e.Err
}

// New creates a new GraphError with the specified category and messages
func New(category Category, err error, userMsg string) *GraphError {
	return &GraphError{
		Err:         err,
		Category:    category,
		UserMessage: userMsg,
		Context:     make(map[string]interface{}),
		Timestamp:   time.Now(),
	}
}

// Newf creates a new GraphError with a formatted error message
func Newf(category Category, userMsg, format string, args ...interface{}) *GraphError {
	return New(category, errors.Newf(format, args...), userMsg)
}

// WithSubcategory adds a subcategory to the error
func (e *GraphError) WithSubcategory(sub string) *GraphError {
	e.Subcategory = sub
	return e
}

// WithContext adds a context key-value pair for debugging
func (e *GraphError) WithContext(key string, value interface{}) *GraphError {
	e.Context[key] = value
	return e
}

// WithContextMap adds multiple context key-value pairs
func (e *GraphError) WithContextMap(ctx map[string]interface{}) *GraphError {
	for k, v := range ctx {
		e.Context[k] = v
	}
	return e
}

// UnresolvableReference reports a link endpoint that matched no node.
// The raw reference values are kept for diagnostics.
func UnresolvableReference(source, target, linkType string, sourceOK, targetOK bool) *GraphError {
	return Newf(CategoryResolve, "Link dropped: endpoint not found in graph",
		"unresolvable link %s -> %s", source, target).
		WithSubcategory(SubcategoryUnresolvableReference).
		WithContextMap(map[string]interface{}{
			"source":          source,
			"target":          target,
			"link_type":       linkType,
			"source_resolved": sourceOK,
			"target_resolved": targetOK,
		})
}

// IdentifierCollision reports a lookup key already bound to another node
func IdentifierCollision(key, keptID, rejectedID string) *GraphError {
	return Newf(CategoryResolve, "Two nodes share an identifier spelling",
		"key %q already maps to %q, ignoring %q", key, keptID, rejectedID).
		WithSubcategory(SubcategoryIdentifierCollision).
		WithContextMap(map[string]interface{}{
			"key":         key,
			"kept_id":     keptID,
			"rejected_id": rejectedID,
		})
}

// AmbiguousDiffShape reports a diff payload that was ignored
func AmbiguousDiffShape(nodes, links int) *GraphError {
	return Newf(CategoryDiff, "Diff could not be interpreted, showing snapshot only",
		"diff payload has %d nodes and %d links", nodes, links).
		WithSubcategory(SubcategoryAmbiguousShape).
		WithContext("diff_nodes", nodes).
		WithContext("diff_links", links)
}

// OrphanedFocus reports a focused node that left the node set
func OrphanedFocus(nodeID string) *GraphError {
	return Newf(CategoryFocus, "Focused node no longer exists, focus cleared",
		"focused node %q not in current node set", nodeID).
		WithSubcategory(SubcategoryOrphanedFocus).
		WithContext("node_id", nodeID)
}
