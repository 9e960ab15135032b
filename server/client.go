package server

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/graph"
	grapherr "github.com/teranos/kgmap/graph/error"
	"github.com/teranos/kgmap/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WebSocket timeout constants following Gorilla's chat example
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer; view changes are small
	maxMessageSize = 64 * 1024
)

// Client is one connected renderer
type Client struct {
	server  *Server
	conn    *websocket.Conn
	id      string
	logger  *zap.SugaredLogger
	limiter *rate.Limiter

	// Queues are never closed; done tells the write pump to exit
	send      chan *GraphMessage
	sendMsg   chan interface{}
	done      chan struct{}
	closeOnce sync.Once

	viewMu sync.RWMutex
	view   ViewState
}

// newClient binds a connection to the hub. ctx carries the upgrade request's ids.
func newClient(ctx context.Context, s *Server, conn *websocket.Conn, id string) *Client {
	return &Client{
		server:  s,
		conn:    conn,
		id:      id,
		logger:  logger.FromContext(logger.WithClientID(ctx, id), s.logger),
		limiter: s.newLimiter(),
		send:    make(chan *GraphMessage, MaxClientMessageQueueSize),
		sendMsg: make(chan interface{}, MaxClientMessageQueueSize),
		done:    make(chan struct{}),
		view: ViewState{
			Filter: graph.FilterState{TypeVisibility: make(map[string]bool)},
		},
	}
}

// View returns a copy of the client's filter and focus
func (c *Client) View() ViewState {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()

	v := c.view
	v.Filter.TypeVisibility = make(map[string]bool, len(c.view.Filter.TypeVisibility))
	for k, visible := range c.view.Filter.TypeVisibility {
		v.Filter.TypeVisibility[k] = visible
	}
	return v
}

// replaceFocus swaps in next only while the focused id is still expected.
// A focus message applied after the render snapshot wins.
func (c *Client) replaceFocus(expected string, next graph.FocusState) bool {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()

	if c.view.Focus.FocusedNodeID != expected {
		return false
	}
	c.view.Focus = next
	return true
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.logger.Debugw("Read pump started")

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.logger.Warnw("JSON unmarshal error", logger.FieldError, err.Error())
			c.sendError("", "malformed message")
			continue
		}

		if !c.limiter.Allow() {
			graphErr := grapherr.Newf(grapherr.CategoryWebSocket,
				"Too many view changes, slow down",
				"client exceeded message rate",
			).WithSubcategory(grapherr.SubcategoryWSRateLimited)
			c.logger.Debugw("Client message rate limited",
				append(graphErr.ToLogFields(), "type", msg.Type)...,
			)
			c.sendError(msg.Type, graphErr.UserMessage)
			continue
		}

		c.routeMessage(&msg)
	}
}

// handleReadError logs unexpected WebSocket read errors.
// Expected closure codes (going away, abnormal, no status) are silently ignored.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		graphErr := grapherr.New(
			grapherr.CategoryWebSocket,
			err,
			"WebSocket connection closed unexpectedly",
		).WithSubcategory(grapherr.SubcategoryWSRead)

		c.logger.Warnw("WebSocket read error", graphErr.ToLogFields()...)
	}
}

// routeMessage applies a view change and asks the hub for a fresh render
func (c *Client) routeMessage(msg *ClientMessage) {
	if msg.Type == MsgPing {
		c.sendJSON(map[string]string{"type": "pong"})
		return
	}

	if err := c.applyMessage(msg); err != nil {
		c.logger.Debugw("Rejected client message",
			"type", msg.Type,
			logger.FieldError, err.Error(),
		)
		c.sendError(msg.Type, err.Error())
		return
	}

	c.server.requestRender(c)
}

// applyMessage mutates the client's view. It returns a user-facing error for
// messages that change nothing.
func (c *Client) applyMessage(msg *ClientMessage) error {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()

	switch msg.Type {
	case MsgFocus:
		if strings.TrimSpace(msg.NodeID) == "" {
			return errors.NewInvalidRequestError("focus requires node_id")
		}
		c.view.Focus.Click(msg.NodeID)

	case MsgClearFocus:
		c.view.Focus.ClearBackground()

	case MsgSetStatus:
		status, ok := graph.ParseStatusFilter(msg.Status)
		if !ok {
			return errors.NewInvalidRequestError("unknown status filter %q", msg.Status)
		}
		c.view.Filter.StatusFilter = status

	case MsgToggleType:
		nodeType := strings.TrimSpace(msg.NodeType)
		if msg.Hidden {
			c.view.Filter.TypeVisibility[nodeType] = false
		} else {
			delete(c.view.Filter.TypeVisibility, nodeType)
		}

	case MsgSearch:
		c.view.Filter.SearchQuery = msg.Query

	default:
		return errors.NewInvalidRequestError("unknown message type %q", msg.Type)
	}
	return nil
}

// writePump writes graphs and messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	c.logger.Debugw("Write pump started")

	for {
		select {
		case <-c.server.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				graphErr := grapherr.New(
					grapherr.CategoryWebSocket,
					err,
					"Failed to send graph to client",
				).WithSubcategory(grapherr.SubcategoryWSWrite)

				c.logger.Warnw("Graph write error", graphErr.ToLogFields()...)
				return
			}

			c.logger.Debugw("Sent graph to client",
				logger.FieldNodes, len(msg.Graph.Nodes),
				logger.FieldEdges, len(msg.Graph.Links),
			)

		case msg := <-c.sendMsg:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debugw("Message write error", logger.FieldError, err.Error())
				// Don't return - message errors shouldn't kill connection
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendJSON queues a non-graph message
func (c *Client) sendJSON(data interface{}) {
	select {
	case c.sendMsg <- data:
	default:
		c.logger.Warnw("Failed to queue message (channel full)")
	}
}

func (c *Client) sendError(request, message string) {
	c.sendJSON(ErrorMessage{Type: "error", Error: message, Request: request})
}

// close stops the write pump; safe to call more than once
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
