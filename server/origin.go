package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin admits requests without an Origin header (CLI tools, tests) and
// browsers whose origin matches an allowed entry. An entry without a port
// matches any port on that scheme and host.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	o, err := url.Parse(origin)
	if err != nil || o.Host == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.allowedOrigins {
		if originMatches(o, entry) {
			return true
		}
	}
	return false
}

func originMatches(o *url.URL, entry string) bool {
	a, err := url.Parse(strings.TrimSuffix(entry, "/"))
	if err != nil || a.Host == "" {
		return false
	}
	if !strings.EqualFold(a.Scheme, o.Scheme) || !strings.EqualFold(a.Hostname(), o.Hostname()) {
		return false
	}
	return a.Port() == "" || a.Port() == o.Port()
}
