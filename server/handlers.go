package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/graph"
	grapherr "github.com/teranos/kgmap/graph/error"
	"github.com/teranos/kgmap/logger"
	"github.com/teranos/kgmap/source"
	"github.com/teranos/kgmap/version"
)

// HandleWebSocket upgrades a renderer connection and registers it with the hub
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.getState() != ServerStateRunning {
		writeError(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		graphErr := grapherr.New(
			grapherr.CategoryWebSocket,
			err,
			"Failed to upgrade WebSocket connection",
		).WithSubcategory(grapherr.SubcategoryWSUpgrade)

		s.logger.Errorw("WebSocket upgrade failed",
			graphErr.ToLogFields()...,
		)
		return
	}

	client := newClient(r.Context(), s, conn, uuid.NewString())

	// Send version info BEFORE starting writePump (avoid concurrent writes)
	info := version.Get()
	if err := conn.WriteJSON(VersionMessage{
		Type:      "version",
		ClientID:  client.id,
		Version:   info.Version,
		Commit:    info.Short(),
		BuildTime: info.BuildTime,
	}); err != nil {
		client.logger.Warnw("Failed to send version info", logger.FieldError, err.Error())
		conn.Close()
		return
	}

	select {
	case s.register <- client:
	case <-s.ctx.Done():
		conn.Close()
		return
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
}

// HandleGraph renders the current input once for a stateless caller.
//
// Query parameters: status, search, focus, hide (comma-separated node types).
func (s *Server) HandleGraph(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet) {
		return
	}

	view, err := viewFromQuery(r)
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	g, diag := render(s.renderEngine(), s.currentInput(), view)
	if diag.HasIssues() {
		s.logger.Debugw("Render diagnostics", diag.ToLogFields()...)
	}
	writeJSON(w, http.StatusOK, g)
}

func viewFromQuery(r *http.Request) (ViewState, error) {
	q := r.URL.Query()
	view := ViewState{
		Filter: graph.FilterState{
			TypeVisibility: make(map[string]bool),
			SearchQuery:    q.Get("search"),
		},
	}

	if raw := q.Get("status"); raw != "" {
		status, ok := graph.ParseStatusFilter(raw)
		if !ok {
			return view, errors.NewInvalidRequestError("unknown status filter %q", raw)
		}
		view.Filter.StatusFilter = status
	}

	if hide := q.Get("hide"); hide != "" {
		for _, t := range strings.Split(hide, ",") {
			if t = strings.TrimSpace(t); t != "" {
				view.Filter.TypeVisibility[t] = false
			}
		}
	}

	view.Focus.Click(q.Get("focus"))
	return view, nil
}

// HandleVersions lists the snapshot history, newest first.
// POST selects which version (and comparison) every client sees.
func (s *Server) HandleVersions(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	s.mu.RLock()
	dir, sel := s.source, s.selection
	s.mu.RUnlock()

	if dir == nil {
		writeError(w, http.StatusNotFound, "No source directory configured")
		return
	}

	if r.Method == http.MethodPost {
		var req source.Selection
		if err := readJSON(w, r, &req); err != nil {
			return
		}
		if err := s.Select(req); err != nil {
			s.logger.Warnw("Version selection failed",
				logger.FieldVersion, req.Version,
				"compare_to", req.CompareTo,
				logger.FieldError, err.Error(),
			)
			writeErrorFor(w, err)
			return
		}
		sel = req
	}

	history, err := dir.History()
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"versions":  history,
		"selection": sel,
	})
}

// HandleHealth returns server health status
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()

	health := map[string]interface{}{
		"status":     "ok",
		"state":      s.getState().String(),
		"version":    versionInfo.Version,
		"commit":     versionInfo.CommitHash,
		"build_time": versionInfo.BuildTime,
		"clients":    s.ClientCount(),
		"drops":      s.broadcastDrops.Load(),
	}
	if in := s.currentInput(); in != nil {
		health["graph_version"] = in.Version
		health["loaded_at"] = in.LoadedAt
	}

	writeJSON(w, http.StatusOK, health)
}
