package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"lifesync/internal/codec"
	"lifesync/internal/config"
	"lifesync/internal/engine"
	"lifesync/internal/logging"
	"lifesync/internal/metrics"
	"lifesync/internal/session"
)

// WebSocket message types.
const (
	WSTypeEvent    = "event"
	WSTypeCommand  = "command"
	WSTypeResponse = "response"
	WSTypeError    = "error"
	WSTypePing     = "ping"
	WSTypePong     = "pong"
)

// Event names carried in the "event" field.
const (
	EventGameTick    = "game-tick"
	EventCellUpdated = "cell-updated"
)

// WSMessage is a frame sent to a WebSocket client.
type WSMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Event   string `json:"event,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// wsInbound is a frame received from a client.
type wsInbound struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	command
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Hub tracks connected WebSocket clients.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex
}

// WSClient is one connected WebSocket client bound to a session.
type WSClient struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	codec   codec.Codec
	session *session.Session
	limiter *rate.Limiter
	server  *Server

	evictOnce sync.Once
}

// NewHub creates a new WebSocket hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logging.OrDiscard(logger),
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	metrics.WebSocketClients.Inc()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

// Unregister removes a client from the hub. Only the call that removes the
// client closes its send channel.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
		metrics.WebSocketClients.Dec()
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects all clients and closes their send channels so
// writePump goroutines can exit.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
		metrics.WebSocketClients.Dec()
	}
}

// handleWebSocket upgrades the request and streams the session's
// notifications to the client.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	c, err := codec.Lookup(r.URL.Query().Get("codec"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:     s.hub,
		conn:    conn,
		send:    make(chan []byte, s.wsCfg.SendBuffer),
		codec:   c,
		session: sess,
		limiter: rate.NewLimiter(rate.Limit(s.wsCfg.CommandsPerSecond), s.wsCfg.CommandBurst),
		server:  s,
	}
	s.hub.Register(client)

	// The initial game-tick is queued before any later notification.
	sub := sess.Engine.Watch(
		func(snap engine.Snapshot) { client.sendEvent(EventGameTick, snap) },
		func(d engine.CellDelta) { client.sendEvent(EventCellUpdated, d) },
	)
	undefer := sess.Defer(func() { s.hub.Unregister(client) })

	go client.writePump(s.wsCfg)
	go client.readPump(s.wsCfg, func() {
		sub.Cancel()
		undefer()
	})
}

// readPump reads command frames until the connection fails.
func (c *WSClient) readPump(cfg config.WebSocketConfig, done func()) {
	defer func() {
		done()
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(cfg.MaxMessageSize)
	deadline := cfg.PingInterval + cfg.PongTimeout
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		kind, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(deadline))

		if kind == websocket.BinaryMessage {
			message, err = c.codec.Decode(message)
			if err != nil {
				c.sendError("", ErrCodeBadRequest, "undecodable frame")
				continue
			}
		}
		c.handleMessage(message)
	}
}

// writePump writes queued frames and keepalive pings.
func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(cfg.PongTimeout))
			if err := c.conn.WriteMessage(frameType, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(cfg.PongTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming frame.
func (c *WSClient) handleMessage(data []byte) {
	var msg wsInbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("", ErrCodeBadRequest, "invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeCommand:
		if !c.limiter.Allow() {
			c.sendError(msg.ID, ErrCodeRateLimited, "too many commands")
			return
		}
		result, err := c.server.execute(c.session.Engine, msg.command)
		if err != nil {
			_, code := classify(err)
			c.sendError(msg.ID, code, err.Error())
			return
		}
		c.enqueue(WSMessage{Type: WSTypeResponse, ID: msg.ID, Payload: result})
	case WSTypePing:
		c.enqueue(WSMessage{Type: WSTypePong, ID: msg.ID})
	default:
		c.sendError(msg.ID, ErrCodeBadRequest, "unknown message type: "+msg.Type)
	}
}

func (c *WSClient) sendEvent(event string, payload any) {
	c.enqueue(WSMessage{Type: WSTypeEvent, Event: event, Payload: payload})
}

func (c *WSClient) sendError(id, code, message string) {
	c.enqueue(WSMessage{Type: WSTypeError, ID: id, Payload: map[string]string{"code": code, "message": message}})
}

// enqueue encodes msg with the client codec and queues it.
func (c *WSClient) enqueue(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("failed to marshal websocket message", "error", err)
		return
	}
	frame, err := c.codec.Encode(data)
	if err != nil {
		c.hub.logger.Error("failed to encode websocket frame", "codec", c.codec.Name(), "error", err)
		return
	}
	c.trySend(frame)
}

// trySend queues data without blocking. A client whose buffer is full has
// missed a frame and can no longer track the grid, so it is disconnected;
// reconnecting delivers a fresh game-tick. Sends on a closed channel are
// absorbed.
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		metrics.WebSocketDroppedTotal.Inc()
		c.evict()
	}
}

// evict closes the connection so readPump unwinds and unregisters the client.
func (c *WSClient) evict() {
	c.evictOnce.Do(func() {
		c.hub.logger.Warn("disconnecting slow websocket client", "buffer", cap(c.send))
		if c.conn != nil {
			c.conn.Close()
		}
	})
}
