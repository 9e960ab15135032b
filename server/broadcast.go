package server

import (
	"github.com/teranos/kgmap/graph"
	grapherr "github.com/teranos/kgmap/graph/error"
	"github.com/teranos/kgmap/logger"
)

// render runs one pass for a view. A nil input renders an empty graph.
func render(engine *graph.Engine, in *Input, view ViewState) (*graph.Graph, *graph.Diagnostics) {
	ri := graph.RenderInput{Filter: view.Filter, Focus: view.Focus}
	if in != nil {
		ri.Snapshot = in.Snapshot
		ri.Diff = in.Diff
	}

	g, diag := engine.Render(ri)
	if in != nil {
		if in.Version != "" {
			g.Meta.Config["version"] = in.Version
		}
		if in.Compare != "" {
			g.Meta.Config["compare_to"] = in.Compare
		}
		if in.Error != nil {
			for k, v := range in.Error.ToGraphMeta("source_") {
				g.Meta.Config[k] = v
			}
		}
	} else {
		g.Meta.Config["description"] = "No graph loaded"
	}
	return g, diag
}

// renderAll re-renders every client. Only called from the hub goroutine.
func (s *Server) renderAll(reason string) {
	s.logger.Debugw("Re-rendering all clients",
		"reason", reason,
		"clients", len(s.clients),
	)
	for client := range s.clients {
		s.renderClient(client)
	}
}

// renderClient renders a client's view and queues the result.
// Only called from the hub goroutine, which is the single writer of client queues.
func (s *Server) renderClient(c *Client) {
	view := c.View()
	g, diag := render(s.engine, s.input, view)

	// Focus reconciliation may have cleared a vanished node
	if view.Focus.FocusedNodeID != g.Meta.FocusedNodeID {
		cleared := graph.FocusState{FocusedNodeID: g.Meta.FocusedNodeID}
		if c.replaceFocus(view.Focus.FocusedNodeID, cleared) {
			view.Focus = cleared
		}
	}

	if diag.HasIssues() {
		c.logger.Debugw("Render diagnostics", diag.ToLogFields()...)
	}

	msg := &GraphMessage{Type: "graph", Graph: g, View: view}
	select {
	case c.send <- msg:
	default:
		s.broadcastDrops.Add(1)
		graphErr := grapherr.Newf(grapherr.CategoryWebSocket,
			"Client is not keeping up with graph updates",
			"send queue full (%d)", MaxClientMessageQueueSize,
		).WithSubcategory(grapherr.SubcategoryWSWrite)
		s.logger.Warnw("Client send channel full, dropping graph update",
			append(graphErr.ToLogFields(),
				logger.FieldClientID, c.id,
				"total_drops", s.broadcastDrops.Load())...,
		)
	}
}
