package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// RefKind tags which form of endpoint reference a NodeRef holds
type RefKind int

const (
	RefNone  RefKind = iota // null or missing endpoint
	RefID                   // id, name or label string
	RefIndex                // position in the node list
	RefNode                 // embedded node object
)

// NodeRef is a link endpoint as written by the backend. Snapshots mix id
// strings, display names, numeric indices and whole node objects.
type NodeRef struct {
	Kind  RefKind
	Key   string // RefID
	Index int    // RefIndex
	Node  *Node  // RefNode
}

// IDRef references a node by id, name or label
func IDRef(key string) NodeRef {
	return NodeRef{Kind: RefID, Key: key}
}

// IndexRef references a node by its position in the node list
func IndexRef(i int) NodeRef {
	return NodeRef{Kind: RefIndex, Index: i}
}

// ObjectRef references a node by an embedded node object
func ObjectRef(n Node) NodeRef {
	return NodeRef{Kind: RefNode, Node: &n}
}

// IsZero reports whether the reference is missing
func (r NodeRef) IsZero() bool {
	return r.Kind == RefNone
}

// String renders the raw reference for diagnostics
func (r NodeRef) String() string {
	switch r.Kind {
	case RefID:
		return r.Key
	case RefIndex:
		return "#" + strconv.Itoa(r.Index)
	case RefNode:
		if r.Node == nil {
			return "<nil node>"
		}
		if r.Node.ID != "" {
			return r.Node.ID
		}
		return r.Node.Name
	default:
		return "<none>"
	}
}

// keys returns the lookup strings a reference offers, most specific first
func (r NodeRef) keys() []string {
	switch r.Kind {
	case RefID:
		if r.Key == "" {
			return nil
		}
		return []string{r.Key}
	case RefNode:
		if r.Node == nil {
			return nil
		}
		var keys []string
		for _, k := range []string{r.Node.ID, r.Node.Name, r.Node.Label} {
			if k != "" {
				keys = append(keys, k)
			}
		}
		return keys
	}
	return nil
}

// UnmarshalJSON accepts a string, a number, an object or null
func (r *NodeRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = NodeRef{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = IDRef(s)
	case '{':
		var n Node
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*r = ObjectRef(n)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("unsupported node reference %s: %w", string(data), err)
		}
		*r = numericRef(f)
	}
	return nil
}

// MarshalJSON writes the reference back in the shape it was read
func (r NodeRef) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RefID:
		return json.Marshal(r.Key)
	case RefIndex:
		return json.Marshal(r.Index)
	case RefNode:
		return json.Marshal(r.Node)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML snapshots
func (r *NodeRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.ShortTag() == "!!null" {
			*r = NodeRef{}
			return nil
		}
		if tag := value.ShortTag(); tag == "!!int" || tag == "!!float" {
			f, err := strconv.ParseFloat(value.Value, 64)
			if err != nil {
				return err
			}
			*r = numericRef(f)
			return nil
		}
		*r = IDRef(value.Value)
	case yaml.MappingNode:
		var n Node
		if err := value.Decode(&n); err != nil {
			return err
		}
		*r = ObjectRef(n)
	default:
		*r = NodeRef{}
	}
	return nil
}

// numericRef keeps only integral numbers as indices
func numericRef(f float64) NodeRef {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return NodeRef{}
	}
	return IndexRef(int(f))
}
