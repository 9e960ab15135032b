package server

import (
	"time"

	"github.com/teranos/kgmap/graph"
	grapherr "github.com/teranos/kgmap/graph/error"
)

const (
	// MaxClients is the maximum number of concurrent WebSocket clients
	MaxClients = 100
	// MaxClientMessageQueueSize is the size of per-client message queues
	MaxClientMessageQueueSize = 256
	// ShutdownTimeout is how long to wait for graceful shutdown
	ShutdownTimeout = 10 * time.Second
)

// ServerState represents the server lifecycle state
type ServerState int

const (
	ServerStateRunning  ServerState = iota // Normal operation
	ServerStateDraining                    // Graceful shutdown in progress
	ServerStateStopped                     // Shutdown complete
)

// Client message types
const (
	MsgFocus      = "focus"
	MsgClearFocus = "clear_focus"
	MsgSetStatus  = "set_status"
	MsgToggleType = "toggle_type"
	MsgSearch     = "search"
	MsgPing       = "ping"
)

// ClientMessage is a view change sent by a renderer
type ClientMessage struct {
	Type     string `json:"type"`      // One of the Msg* constants
	NodeID   string `json:"node_id"`   // For focus
	Status   string `json:"status"`    // For set_status: active, all, pending, rejected
	NodeType string `json:"node_type"` // For toggle_type
	Hidden   bool   `json:"hidden"`    // For toggle_type
	Query    string `json:"query"`     // For search
}

// GraphMessage wraps a rendered graph for the socket
type GraphMessage struct {
	Type  string       `json:"type"` // Always "graph"
	Graph *graph.Graph `json:"graph"`
	View  ViewState    `json:"view"` // View the graph was rendered with
}

// ErrorMessage reports a rejected client message
type ErrorMessage struct {
	Type    string `json:"type"` // Always "error"
	Error   string `json:"error"`
	Request string `json:"request,omitempty"` // Message type that failed
}

// VersionMessage is sent once when a client connects
type VersionMessage struct {
	Type      string `json:"type"` // Always "version"
	ClientID  string `json:"client_id"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// ViewState is one client's filter and focus. The hub owns rendering; the
// read pump only mutates this under Client.viewMu.
type ViewState struct {
	Filter graph.FilterState `json:"filter"`
	Focus  graph.FocusState  `json:"focus"`
}

// Input is the snapshot and optional diff every client renders from
type Input struct {
	Snapshot graph.Snapshot
	Diff     *graph.DiffResponse
	Version  string // Displayed version id, empty when not loaded from a directory
	Compare  string // Version compared against, empty without a diff
	LoadedAt time.Time

	// Error is set when the latest reload failed and the input is stale
	Error *grapherr.GraphError
}
