// Package server pushes rendered graphs to browser renderers over WebSocket.
// Each connected client keeps its own filter and focus; the hub re-renders
// every client whenever the input snapshot changes.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teranos/kgmap/am"
	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/graph"
	grapherr "github.com/teranos/kgmap/graph/error"
	"github.com/teranos/kgmap/logger"
	"github.com/teranos/kgmap/source"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures a Server
type Options struct {
	Engine    *graph.Engine
	Source    *source.Dir // Optional; without it input comes only from SetInput
	Selection source.Selection

	AllowedOrigins          []string
	ClientMessagesPerSecond float64 // 0 = unlimited
	ClientMessageBurst      int

	Logger *zap.SugaredLogger
}

// Server is the render hub and its HTTP surface
type Server struct {
	logger *zap.SugaredLogger

	// Owned by the hub goroutine
	clients map[*Client]bool
	engine  *graph.Engine
	input   *Input

	register   chan *Client
	unregister chan *Client
	renderReq  chan *Client
	inputs     chan *Input
	engines    chan *graph.Engine

	// Read by HTTP handlers and client constructors
	mu             sync.RWMutex
	current        *Input
	currentEngine  *graph.Engine
	source         *source.Dir
	selection      source.Selection
	allowedOrigins []string
	clientLimit    rate.Limit
	clientBurst    int
	clientCount    atomic.Int32

	httpServer *http.Server

	// Lifecycle management
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	broadcastDrops atomic.Int64
	state          atomic.Int32
}

// New creates a server. Call Run (or Start) before accepting clients.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("server")
	}
	engine := opts.Engine
	if engine == nil {
		engine = graph.NewEngine(graph.DefaultEngineConfig(), log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		logger:        log,
		clients:       make(map[*Client]bool),
		engine:        engine,
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		renderReq:     make(chan *Client, MaxClientMessageQueueSize),
		inputs:        make(chan *Input, 1),
		engines:       make(chan *graph.Engine, 1),
		currentEngine: engine,
		source:        opts.Source,
		selection:     opts.Selection,
		ctx:           ctx,
		cancel:        cancel,
	}
	s.setClientPolicy(opts.AllowedOrigins, opts.ClientMessagesPerSecond, opts.ClientMessageBurst)
	s.state.Store(int32(ServerStateRunning))
	return s
}

func (s *Server) setClientPolicy(origins []string, perSecond float64, burst int) {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	s.mu.Lock()
	s.allowedOrigins = append([]string(nil), origins...)
	s.clientLimit = limit
	s.clientBurst = burst
	s.mu.Unlock()
}

// newLimiter builds a limiter from the current client policy
func (s *Server) newLimiter() *rate.Limiter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rate.NewLimiter(s.clientLimit, s.clientBurst)
}

// SetInput replaces the snapshot every client renders from
func (s *Server) SetInput(in *Input) {
	if in.LoadedAt.IsZero() {
		in.LoadedAt = time.Now()
	}

	s.mu.Lock()
	s.current = in
	s.mu.Unlock()

	// Keep only the newest pending input
	for {
		select {
		case s.inputs <- in:
			return
		case <-s.ctx.Done():
			return
		default:
			select {
			case <-s.inputs:
			default:
			}
		}
	}
}

// Reload reads the current selection from the source directory and pushes it to clients.
// On failure clients keep the previous graph, flagged as stale.
func (s *Server) Reload() error {
	s.mu.RLock()
	sel := s.selection
	s.mu.RUnlock()

	err := s.load(sel)
	if err != nil {
		s.markStale(err)
	}
	return err
}

// markStale re-publishes the current input with the load error attached
func (s *Server) markStale(err error) {
	sub := grapherr.SubcategorySourceDecode
	if errors.IsNotFoundError(err) {
		sub = grapherr.SubcategorySourceRead
	}
	gerr := grapherr.New(grapherr.CategorySource, err, "Showing the last graph that loaded").
		WithSubcategory(sub)
	s.logger.Warnw("Source reload failed, keeping previous graph", gerr.ToLogFields()...)

	prev := s.currentInput()
	if prev == nil {
		return
	}
	stale := *prev
	stale.Error = gerr
	s.SetInput(&stale)
}

// Select changes which versions are shown. A selection that fails to load
// leaves the previous one in place.
func (s *Server) Select(sel source.Selection) error {
	if err := s.load(sel); err != nil {
		return err
	}
	s.mu.Lock()
	s.selection = sel
	s.mu.Unlock()
	return nil
}

func (s *Server) load(sel source.Selection) error {
	s.mu.RLock()
	dir := s.source
	s.mu.RUnlock()

	if dir == nil {
		return errors.Wrap(errors.ErrNotFound, "no source directory configured")
	}

	snap, diff, err := dir.Load(sel)
	if err != nil {
		return errors.Wrap(err, "failed to load source")
	}

	version := sel.Version
	if version == "" {
		if latest, err := dir.Latest(); err == nil {
			version = latest.ID
		}
	}
	compare := ""
	if diff != nil {
		compare = sel.CompareTo
	}

	s.SetInput(&Input{Snapshot: snap, Diff: diff, Version: version, Compare: compare})
	s.logger.Infow("Source loaded",
		logger.FieldVersion, version,
		"compare_to", compare,
		logger.FieldNodes, len(snap.Nodes),
		logger.FieldEdges, len(snap.Links),
	)
	return nil
}

// SetEngine swaps the render rules and re-renders every client
func (s *Server) SetEngine(engine *graph.Engine) {
	s.mu.Lock()
	s.currentEngine = engine
	s.mu.Unlock()

	for {
		select {
		case s.engines <- engine:
			return
		case <-s.ctx.Done():
			return
		default:
			select {
			case <-s.engines:
			default:
			}
		}
	}
}

// ApplyConfig rebuilds the engine and client policy from a reloaded configuration
func (s *Server) ApplyConfig(cfg *am.Config) error {
	if err := cfg.Validate(); err != nil {
		gerr := grapherr.New(grapherr.CategoryInternal, err, "Configuration rejected").
			WithSubcategory(grapherr.SubcategoryInternalConfig)
		s.logger.Warnw("Ignoring invalid configuration", gerr.ToLogFields()...)
		return err
	}
	s.setClientPolicy(cfg.Server.AllowedOrigins, cfg.Server.ClientMessagesPerSecond, cfg.Server.ClientMessageBurst)
	s.SetEngine(graph.NewEngine(cfg.EngineConfig(), logger.ComponentLogger("render")))
	s.logger.Infow("Render configuration applied")
	return nil
}

// currentInput returns the latest input, or nil before the first load
func (s *Server) currentInput() *Input {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Server) renderEngine() *graph.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentEngine
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	return int(s.clientCount.Load())
}

// Run starts the hub event loop; it returns when the server stops
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Server hub stopping due to context cancellation")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		case client := <-s.renderReq:
			if s.clients[client] {
				s.renderClient(client)
			}
		case in := <-s.inputs:
			s.input = in
			s.renderAll("input")
		case engine := <-s.engines:
			s.engine = engine
			s.renderAll("config")
		}
	}
}

// handleClientRegister adds a client and sends it the current graph
func (s *Server) handleClientRegister(client *Client) {
	if len(s.clients) >= MaxClients {
		s.logger.Warnw("Max clients reached, rejecting connection",
			logger.FieldClientID, client.id,
			"max_clients", MaxClients,
		)
		client.close()
		return
	}

	s.clients[client] = true
	s.clientCount.Store(int32(len(s.clients)))

	s.logger.Infow("Client connected",
		logger.FieldClientID, client.id,
		"total_clients", len(s.clients),
	)

	s.renderClient(client)
}

// handleClientUnregister removes a client
func (s *Server) handleClientUnregister(client *Client) {
	if !s.clients[client] {
		return
	}
	delete(s.clients, client)
	s.clientCount.Store(int32(len(s.clients)))
	client.close()

	s.logger.Infow("Client disconnected",
		logger.FieldClientID, client.id,
		"total_clients", len(s.clients),
	)
}

// requestRender asks the hub to re-render one client after a view change
func (s *Server) requestRender(c *Client) {
	select {
	case s.renderReq <- c:
	case <-s.ctx.Done():
	default:
		s.broadcastDrops.Add(1)
		s.logger.Warnw("Render request queue full, dropping view update",
			logger.FieldClientID, c.id,
		)
	}
}
