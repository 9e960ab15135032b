package grapherror

import (
	"fmt"
	"sort"
	"strings"
)

// fallbackMessages are shown when an error carries no user message
var fallbackMessages = map[Category]string{
	CategoryResolve:   "Some links could not be matched to nodes",
	CategoryDiff:      "Version comparison could not be applied",
	CategoryFocus:     "Focus was reset",
	CategorySource:    "Graph data could not be loaded",
	CategoryWebSocket: "Connection problem, reconnecting",
	CategoryInternal:  "Something went wrong while rendering",
}

// ToUIMessage returns the text a renderer shows for this error
func (e *GraphError) ToUIMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	if msg, ok := fallbackMessages[e.Category]; ok {
		return msg
	}
	return "Something went wrong"
}

// ToGraphMeta flattens the error into Meta.Config entries under prefix
func (e *GraphError) ToGraphMeta(prefix string) map[string]string {
	meta := map[string]string{
		prefix + "category": string(e.Category),
		prefix + "message":  e.ToUIMessage(),
		prefix + "detail":   e.Error(),
		prefix + "at":       e.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if e.Subcategory != "" {
		meta[prefix+"subcategory"] = e.Subcategory
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s=%v", k, e.Context[k])
		}
		meta[prefix+"context"] = strings.Join(pairs, " ")
	}
	return meta
}

// ToLogFields returns key/value pairs for Warnw and friends
func (e *GraphError) ToLogFields() []interface{} {
	fields := []interface{}{
		"error_category", e.Category,
		"error_message", e.Error(),
		"user_message", e.UserMessage,
	}
	if e.Subcategory != "" {
		fields = append(fields, "error_subcategory", e.Subcategory)
	}
	for k, v := range e.Context {
		fields = append(fields, k, v)
	}
	return fields
}

// IsCategory reports whether the error belongs to cat
func (e *GraphError) IsCategory(cat Category) bool {
	return e.Category == cat
}

// IsSubcategory reports whether the error carries sub
func (e *GraphError) IsSubcategory(sub string) bool {
	return e.Subcategory == sub
}
