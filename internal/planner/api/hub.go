// Package api serves the websocket surface. Clients submit plans over the
// socket; the solver worker's results are broadcast to every connected
// client as they complete, newest request winning.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rsned/factorio-planner-server/internal/planner/engine"
	"github.com/rsned/factorio-planner-server/internal/planner/solver"
	"github.com/rsned/factorio-planner-server/pkg/planner"
)

// Message is the JSON envelope for all socket traffic.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outMessage is the outbound envelope; Payload is rendered, not raw.
type outMessage struct {
	Type    string `json:"type"`
	Seq     uint64 `json:"seq,omitempty"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client represents a single connected planner UI.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and broadcasts solve results to
// them.
type Hub struct {
	engine *engine.Engine
	logger *slog.Logger

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// latestDoc is the document of the newest submitted solve, consulted
	// when its result arrives. Guarded by mu: readPump goroutines write it,
	// the hub goroutine reads it.
	mu        sync.Mutex
	latestDoc *planner.PlanDoc
	latestSeq uint64
}

// NewHub creates a hub over an engine.
func NewHub(eng *engine.Engine, logger *slog.Logger) *Hub {
	return &Hub{
		engine:     eng,
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run is the hub event loop. It blocks until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info("websocket client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case response := <-h.engine.SolveResults():
			h.deliver(response)

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// deliver renders a solve outcome and broadcasts it. The worker already
// filtered stale results, but the hub re-checks against its own latest
// sequence before trusting latestDoc.
func (h *Hub) deliver(response solver.Response) {
	h.mu.Lock()
	doc, seq := h.latestDoc, h.latestSeq
	h.mu.Unlock()
	if response.Seq < seq || doc == nil {
		return
	}
	var out outMessage
	if response.Err != nil {
		out = outMessage{Type: "solve_error", Seq: response.Seq, Error: response.Err.Error()}
	} else {
		out = outMessage{
			Type:    "solve_result",
			Seq:     response.Seq,
			Payload: h.engine.SolveResponseOf(doc, response.Result),
		}
	}
	payload, err := json.Marshal(out)
	if err != nil {
		h.logger.Error("encoding solve result", "error", err)
		return
	}
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// handleSolve queues a plan on the solver worker.
func (h *Hub) handleSolve(raw json.RawMessage) outMessage {
	var req planner.SolveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return outMessage{Type: "error", Error: "invalid solve payload: " + err.Error()}
	}
	seq, err := h.engine.SubmitSolve(&req.Plan)
	if err != nil {
		return outMessage{Type: "error", Error: err.Error()}
	}
	doc := req.Plan
	h.mu.Lock()
	if seq > h.latestSeq {
		h.latestDoc = &doc
		h.latestSeq = seq
	}
	h.mu.Unlock()
	return outMessage{Type: "solve_queued", Seq: seq}
}

// handleMessage dispatches one inbound client message and returns the
// direct reply, if any.
func (h *Hub) handleMessage(msg Message) *outMessage {
	switch msg.Type {
	case "solve":
		out := h.handleSolve(msg.Payload)
		return &out
	case "compute_flow":
		var cfg planner.MechanismConfig
		if err := json.Unmarshal(msg.Payload, &cfg); err != nil {
			return &outMessage{Type: "error", Error: "invalid mechanism payload: " + err.Error()}
		}
		resp, err := h.engine.ComputeFlow(cfg)
		if err != nil {
			return &outMessage{Type: "error", Error: err.Error()}
		}
		return &outMessage{Type: "flow_result", Payload: resp}
	case "context_stats":
		return &outMessage{Type: "context_stats", Payload: h.engine.Stats()}
	default:
		return &outMessage{Type: "error", Error: "unknown message type: " + msg.Type}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades an HTTP request to a websocket and attaches it to the
// hub.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection into the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("websocket read failed", "error", err)
			}
			break
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(outMessage{Type: "error", Error: "invalid message: " + err.Error()})
			continue
		}
		if out := c.hub.handleMessage(msg); out != nil {
			c.reply(*out)
		}
	}
}

// reply queues a direct response to this client only.
func (c *Client) reply(out outMessage) {
	payload, err := json.Marshal(out)
	if err != nil {
		c.hub.logger.Error("encoding reply", "error", err)
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	defer func() {
		_ = c.conn.Close()
	}()
	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
}
