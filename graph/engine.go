package graph

import (
	"time"

	"github.com/google/uuid"
	grapherr "github.com/teranos/kgmap/graph/error"
	"github.com/teranos/kgmap/logger"
	"go.uber.org/zap"
)

// EngineConfig holds the rules a render pass applies
type EngineConfig struct {
	Index               IndexOptions
	Focus               FocusRules
	AnchorType          string
	DefaultStatusFilter StatusFilter // Used when a FilterState leaves the status unset
	NodeTypes           map[string]TypeDefinition
	RelationshipTypes   map[string]RelationshipDefinition
}

// DefaultEngineConfig returns the built-in rules
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Index:               DefaultIndexOptions(),
		Focus:               DefaultFocusRules(),
		AnchorType:          AnchorLinkType,
		DefaultStatusFilter: StatusFilterActive,
	}
}

// RenderInput is everything one render pass consumes
type RenderInput struct {
	Snapshot Snapshot
	Diff     *DiffResponse // nil when no versions are being compared
	Filter   FilterState
	Focus    FocusState
}

// Engine turns a snapshot and optional diff into a render-ready graph.
// It holds configuration only; every pass builds its own index.
type Engine struct {
	cfg    EngineConfig
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewEngine creates a render engine. A nil logger discards output.
func NewEngine(cfg EngineConfig, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.AnchorType == "" {
		cfg.AnchorType = AnchorLinkType
	}
	if cfg.Focus.ContainmentType == "" {
		cfg.Focus = DefaultFocusRules()
	}
	return &Engine{
		cfg:    cfg,
		logger: log.Named("graph.engine"),
		now:    time.Now,
	}
}

// Config returns the engine's rules
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// Render runs merge, index, link resolution, orphan anchoring, filtering and
// focus in that order. It never fails: problems degrade the output and are
// reported in the returned Diagnostics.
func (e *Engine) Render(in RenderInput) (*Graph, *Diagnostics) {
	diag := &Diagnostics{PassID: uuid.NewString()}
	log := e.logger.With(logger.FieldPassID, diag.PassID)

	var payload *DiffPayload
	if in.Diff != nil {
		payload = &in.Diff.Diff
	}

	merged := MergeDiff(in.Snapshot, payload, e.cfg.Index)
	diag.DiffShape = merged.Shape
	diag.DuplicateLinks = merged.DuplicateLinks
	if merged.Shape == ShapeAmbiguous {
		gerr := grapherr.AmbiguousDiffShape(len(payload.Nodes), len(payload.Links))
		diag.add(gerr)
		log.Warnw("Ignoring diff payload", gerr.ToLogFields()...)
	}

	idx := BuildIndex(merged.Nodes, e.cfg.Index, log).WithPositions(merged.Positions)
	diag.Collisions = idx.Collisions()
	for _, c := range diag.Collisions {
		diag.add(grapherr.IdentifierCollision(c.Key, c.KeptID, c.RejectedID))
	}

	links := ResolveLinks(merged.Links, idx)
	diag.DroppedLinks = links.Dropped
	for _, d := range links.Dropped {
		gerr := grapherr.UnresolvableReference(d.Source.String(), d.Target.String(), d.Type, d.SourceResolved, d.TargetResolved)
		diag.add(gerr)
		log.Debugw("Dropped link", gerr.ToLogFields()...)
	}

	anchored := AnchorOrphans(merged.Nodes, links.Resolved, e.cfg.AnchorType)
	diag.Orphans = anchored.Orphans
	diag.AnchorTargetID = anchored.AnchorID

	edges := make([]*Edge, 0, len(links.Resolved)+len(anchored.Edges))
	edges = append(edges, links.Resolved...)
	edges = append(edges, anchored.Edges...)

	focus := in.Focus
	if missing := focus.FocusedNodeID; focus.Reconcile(merged.Nodes) {
		diag.OrphanedFocus = missing
		gerr := grapherr.OrphanedFocus(missing)
		diag.add(gerr)
		log.Debugw("Clearing focus", gerr.ToLogFields()...)
	}

	filter := in.Filter
	if filter.StatusFilter == "" {
		filter.StatusFilter = e.cfg.DefaultStatusFilter
	}
	visible := ApplyFilters(merged.Nodes, edges, filter)

	g := e.decorate(visible, focus, filter)
	g.Meta.PassID = diag.PassID
	g.Meta.UsedDiffPayload = merged.UsedDiffPayload
	if in.Diff != nil && merged.Shape != ShapeAmbiguous {
		summary := in.Diff.Summary
		g.Meta.Diff = &summary
	}
	g.Meta.Stats.DroppedLinks = len(links.Dropped)
	g.Meta.Stats.AnchorEdges = len(anchored.Edges)
	g.Meta.Stats.Orphans = len(anchored.Orphans)
	g.Meta.Config["diff_shape"] = string(merged.Shape)

	// Legends cover the pre-filter set so hidden types stay toggleable
	g.Meta.NodeTypes = collectNodeTypeInfo(merged.Nodes, e.cfg.NodeTypes, filter.HiddenTypes())
	g.Meta.RelationshipTypes = collectRelationshipTypeInfo(edges, e.cfg.RelationshipTypes, e.cfg.Focus)

	log.Debugw("Rendered graph", append(diag.ToLogFields(),
		"nodes", g.Meta.Stats.TotalNodes,
		"edges", g.Meta.Stats.TotalEdges,
	)...)

	return g, diag
}

// decorate attaches selection, focus and opacity to the visible set
func (e *Engine) decorate(visible FilterResult, focus FocusState, filter FilterState) *Graph {
	rules := e.cfg.Focus
	focusedID := focus.FocusedNodeID
	inFocus := ComputeFocus(focusedID, visible.Edges, rules.ContainmentType)

	g := &Graph{
		Nodes: make([]*RenderNode, 0, len(visible.Nodes)),
		Links: make([]*RenderEdge, 0, len(visible.Edges)),
		Meta: Meta{
			GeneratedAt: e.now(),
			Config: map[string]string{
				"containment_type": rules.ContainmentType,
				"anchor_type":      e.cfg.AnchorType,
				"status_filter":    string(filter.StatusFilter),
			},
			SelectedNodeID: visible.SelectedNodeID,
			FocusedNodeID:  focusedID,
		},
	}
	if filter.SearchQuery != "" {
		g.Meta.Config["search_query"] = filter.SearchQuery
	}

	for _, n := range visible.Nodes {
		g.Nodes = append(g.Nodes, &RenderNode{
			Node:     n,
			Selected: n.ID == visible.SelectedNodeID,
			InFocus:  inFocus[n.ID],
			Opacity:  rules.NodeOpacity(n.ID, focusedID, inFocus),
		})
	}

	for _, edge := range visible.Edges {
		emphasized := rules.IsEmphasized(edge, focusedID, inFocus)
		g.Links = append(g.Links, &RenderEdge{
			Edge:       edge,
			Emphasized: emphasized,
			Opacity:    rules.EdgeOpacity(emphasized, focusedID),
		})
	}

	g.Meta.Stats.TotalNodes = len(g.Nodes)
	g.Meta.Stats.TotalEdges = len(g.Links)
	return g
}
