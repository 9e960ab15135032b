package graph

import (
	"regexp"
	"strings"

	grapherr "github.com/teranos/kgmap/graph/error"
	"go.uber.org/zap"
)

// ambiguousLeadingID matches ids like "O123" or "0123" whose first character
// is routinely confused with a digit.
var ambiguousLeadingID = regexp.MustCompile(`^[OoIl01][0-9]+$`)

// leadingSwaps maps each ambiguous leading character to its alternate spellings
var leadingSwaps = map[byte][]byte{
	'O': {'0'},
	'o': {'0'},
	'0': {'O'},
	'I': {'1'},
	'l': {'1'},
	'1': {'I', 'l'},
}

// IndexOptions controls which identifier variants are registered
type IndexOptions struct {
	ContentSuffix string   // Suffix ids are written with or without (e.g. ".md")
	TypePrefixes  []string // Type prefixes ids are written with or without
}

// DefaultIndexOptions returns the variant rules used when none are configured
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		ContentSuffix: DefaultContentSuffix,
		TypePrefixes:  append([]string(nil), DefaultTypePrefixes...),
	}
}

// Collision records a key that two different nodes tried to claim
type Collision struct {
	Key        string `json:"key"`
	KeptID     string `json:"kept_id"`
	RejectedID string `json:"rejected_id"`
}

// ReconciliationIndex maps every accepted spelling of a node reference to the
// one canonical node. It is built fresh for each render pass and never shared.
type ReconciliationIndex struct {
	opts       IndexOptions
	nodes      []*Node
	positions  []*Node // Index endpoint targets; nodes unless WithPositions replaced it
	keys       map[string]*Node
	collisions []Collision
	logger     *zap.SugaredLogger
}

// BuildIndex registers the id, name, label and known variants of every node.
// The first node to claim a key keeps it; later claims are logged as collisions.
func BuildIndex(nodes []*Node, opts IndexOptions, logger *zap.SugaredLogger) *ReconciliationIndex {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	idx := &ReconciliationIndex{
		opts:      opts,
		nodes:     nodes,
		positions: nodes,
		keys:      make(map[string]*Node, len(nodes)*4),
		logger:    logger,
	}

	// Canonical keys first so a variant of one node never shadows another node's id
	for _, n := range nodes {
		idx.register(n.ID, n)
	}
	for _, n := range nodes {
		idx.register(n.Name, n)
		idx.register(n.Label, n)
	}
	for _, n := range nodes {
		for _, key := range idx.variants(n) {
			idx.register(key, n)
		}
	}

	return idx
}

// variants lists the derived spellings registered for a node
func (idx *ReconciliationIndex) variants(n *Node) []string {
	var out []string

	for _, base := range []string{n.ID, n.Name} {
		if base == "" {
			continue
		}
		if v, ok := idx.toggleSuffix(base); ok {
			out = append(out, v)
		}
	}

	for _, prefix := range idx.opts.TypePrefixes {
		if stripped, ok := stripPrefix(n.ID, prefix); ok {
			out = append(out, stripped)
			if v, ok := idx.toggleSuffix(stripped); ok {
				out = append(out, v)
			}
		}
	}

	out = append(out, alternateSpellings(n.ID)...)
	return out
}

func (idx *ReconciliationIndex) register(key string, n *Node) {
	if key == "" {
		return
	}
	existing, ok := idx.keys[key]
	if !ok {
		idx.keys[key] = n
		return
	}
	if existing == n {
		return
	}
	// Variants of two nodes sharing an id are reported once, on the id itself
	if existing.ID == n.ID && key != n.ID {
		return
	}

	c := Collision{Key: key, KeptID: existing.ID, RejectedID: n.ID}
	idx.collisions = append(idx.collisions, c)
	idx.logger.Warnw("Identifier collision, keeping first node",
		grapherr.IdentifierCollision(c.Key, c.KeptID, c.RejectedID).ToLogFields()...)
}

// WithPositions makes numeric endpoints resolve against positions instead of
// the indexed node list. Nil entries never resolve. A nil slice is ignored.
func (idx *ReconciliationIndex) WithPositions(positions []*Node) *ReconciliationIndex {
	if positions != nil {
		idx.positions = positions
	}
	return idx
}

// Resolve returns the node a reference points at, or nil when nothing matches.
// Lookup order: exact key, suffix variant, numeric index, prefix variant.
func (idx *ReconciliationIndex) Resolve(ref NodeRef) *Node {
	if ref.Kind == RefIndex {
		if ref.Index >= 0 && ref.Index < len(idx.positions) {
			return idx.positions[ref.Index]
		}
		return nil
	}

	for _, key := range ref.keys() {
		if n := idx.resolveKey(key); n != nil {
			return n
		}
	}
	return nil
}

// ResolveID resolves a bare id, name or label string
func (idx *ReconciliationIndex) ResolveID(key string) *Node {
	return idx.Resolve(IDRef(key))
}

func (idx *ReconciliationIndex) resolveKey(key string) *Node {
	if n, ok := idx.keys[key]; ok {
		return n
	}

	if v, ok := idx.toggleSuffix(key); ok {
		if n, ok := idx.keys[v]; ok {
			return n
		}
	}

	for _, prefix := range idx.opts.TypePrefixes {
		if stripped, ok := stripPrefix(key, prefix); ok {
			if n, ok := idx.keys[stripped]; ok {
				return n
			}
			if v, ok := idx.toggleSuffix(stripped); ok {
				if n, ok := idx.keys[v]; ok {
					return n
				}
			}
		}
		if n, ok := idx.keys[prefix+key]; ok {
			return n
		}
	}

	return nil
}

// toggleSuffix strips the content suffix when present and adds it otherwise
func (idx *ReconciliationIndex) toggleSuffix(key string) (string, bool) {
	suffix := idx.opts.ContentSuffix
	if suffix == "" || key == "" {
		return "", false
	}
	if strings.HasSuffix(key, suffix) {
		stripped := strings.TrimSuffix(key, suffix)
		return stripped, stripped != ""
	}
	return key + suffix, true
}

// Nodes returns the node list the index was built over
func (idx *ReconciliationIndex) Nodes() []*Node {
	return idx.nodes
}

// Collisions returns keys that more than one node tried to claim
func (idx *ReconciliationIndex) Collisions() []Collision {
	return idx.collisions
}

// Len returns the number of registered keys
func (idx *ReconciliationIndex) Len() int {
	return len(idx.keys)
}

func stripPrefix(key, prefix string) (string, bool) {
	if prefix == "" || !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
		return "", false
	}
	return key[len(prefix):], true
}

// alternateSpellings returns the look-alike variants of an ambiguous id
func alternateSpellings(id string) []string {
	if !ambiguousLeadingID.MatchString(id) {
		return nil
	}
	var out []string
	for _, alt := range leadingSwaps[id[0]] {
		out = append(out, string(alt)+id[1:])
	}
	return out
}
