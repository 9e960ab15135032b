package grapherror

// Category represents the main error category for graph operations
type Category string

const (
	// CategoryResolve indicates identifier or link endpoint resolution problems
	CategoryResolve Category = "resolve"

	// CategoryDiff indicates diff payload interpretation problems
	CategoryDiff Category = "diff"

	// CategoryFocus indicates focus state problems
	CategoryFocus Category = "focus"

	// CategorySource indicates snapshot, diff or history loading errors
	CategorySource Category = "source"

	// CategoryWebSocket indicates WebSocket connection/communication errors
	CategoryWebSocket Category = "websocket"

	// CategoryInternal indicates internal server errors
	CategoryInternal Category = "internal"
)

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// Resolve Subcategories
const (
	// SubcategoryUnresolvableReference indicates a link endpoint matched no node
	SubcategoryUnresolvableReference = "unresolvable_reference"

	// SubcategoryIdentifierCollision indicates two nodes claimed the same lookup key
	SubcategoryIdentifierCollision = "identifier_collision"
)

// Diff Subcategories
const (
	// SubcategoryAmbiguousShape indicates a diff payload matched neither recognized shape
	SubcategoryAmbiguousShape = "ambiguous_shape"
)

// Focus Subcategories
const (
	// SubcategoryOrphanedFocus indicates the focused node left the node set
	SubcategoryOrphanedFocus = "orphaned_focus"
)

// Source Subcategories
const (
	// SubcategorySourceRead indicates a file could not be read
	SubcategorySourceRead = "read"

	// SubcategorySourceDecode indicates a file could not be decoded
	SubcategorySourceDecode = "decode"
)

// WebSocket Subcategories
const (
	// SubcategoryWSRead indicates error reading from WebSocket
	SubcategoryWSRead = "read"

	// SubcategoryWSWrite indicates error writing to WebSocket
	SubcategoryWSWrite = "write"

	// SubcategoryWSUpgrade indicates WebSocket upgrade failed
	SubcategoryWSUpgrade = "upgrade"

	// SubcategoryWSRateLimited indicates a client exceeded its message rate
	SubcategoryWSRateLimited = "rate_limited"
)

// Internal Subcategories
const (
	// SubcategoryInternalConfig indicates configuration error
	SubcategoryInternalConfig = "config"
)
