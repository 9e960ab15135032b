package graph

import (
	grapherr "github.com/teranos/kgmap/graph/error"
	"github.com/teranos/kgmap/logger"
)

// Diagnostics is the structured record of everything a render pass
// tolerated instead of failing on
type Diagnostics struct {
	PassID         string                 `json:"pass_id"`
	DiffShape      DiffShape              `json:"diff_shape"`
	DroppedLinks   []DroppedLink          `json:"dropped_links,omitempty"`
	DuplicateLinks int                    `json:"duplicate_links,omitempty"`
	Collisions     []Collision            `json:"collisions,omitempty"`
	Orphans        []string               `json:"orphans,omitempty"`
	AnchorTargetID string                 `json:"anchor_target_id,omitempty"`
	OrphanedFocus  string                 `json:"orphaned_focus,omitempty"` // Focused id cleared during the pass
	Errors         []*grapherr.GraphError `json:"-"`
}

// HasIssues reports whether anything was dropped, ignored or cleared
func (d *Diagnostics) HasIssues() bool {
	return len(d.Errors) > 0
}

// ErrorsBySubcategory returns the collected errors with the given subcategory
func (d *Diagnostics) ErrorsBySubcategory(sub string) []*grapherr.GraphError {
	var out []*grapherr.GraphError
	for _, e := range d.Errors {
		if e.IsSubcategory(sub) {
			out = append(out, e)
		}
	}
	return out
}

// ToLogFields summarizes the pass as structured log fields
func (d *Diagnostics) ToLogFields() []interface{} {
	fields := []interface{}{
		logger.FieldPassID, d.PassID,
		"diff_shape", d.DiffShape,
		"dropped_links", len(d.DroppedLinks),
		"duplicate_links", d.DuplicateLinks,
		"collisions", len(d.Collisions),
		"orphans", len(d.Orphans),
	}
	if d.AnchorTargetID != "" {
		fields = append(fields, "anchor_target", d.AnchorTargetID)
	}
	if d.OrphanedFocus != "" {
		fields = append(fields, "orphaned_focus", d.OrphanedFocus)
	}
	return fields
}

func (d *Diagnostics) add(err *grapherr.GraphError) {
	d.Errors = append(d.Errors, err.WithContext(logger.FieldPassID, d.PassID))
}
