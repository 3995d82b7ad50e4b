// File: internal/server/websocket.go
package server

import (
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/api/schemas"
)

// The findings socket is read by local dashboards served from other origins,
// matching the permissive CORS policy on the HTTP routes.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 8192
	// Send buffer size
	sendChannelSize = 256
)

// Hub fans findings out to every connected websocket client. The zero value
// is not usable; call NewHub.
type Hub struct {
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger.Named("ws_hub"),
		now:     time.Now,
		clients: make(map[*wsClient]struct{}),
	}
}

// wsClient represents a single active WebSocket connection.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	// Buffered channel of outgoing messages. Only writePump writes to conn.
	// The channel is closed by the hub while holding hub.mu.
	send chan WSMessage

	filterMu sync.Mutex
	filter   string
}

func (c *wsClient) accepts(path string) bool {
	c.filterMu.Lock()
	defer c.filterMu.Unlock()
	return c.filter == "" || c.filter == path
}

func (c *wsClient) setFilter(path string) {
	c.filterMu.Lock()
	c.filter = path
	c.filterMu.Unlock()
}

// trySend queues msg without blocking. The caller holds hub.mu.
func (c *wsClient) trySend(msg WSMessage) {
	select {
	case c.send <- msg:
	default:
		c.hub.logger.Error("WebSocket send buffer full, dropping message. Client may be unresponsive.",
			zap.String("type", string(msg.Type)), zap.String("remoteAddr", c.conn.RemoteAddr().String()))
	}
}

func (h *Hub) register(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// enqueue sends msg to a single client if it is still registered.
func (h *Hub) enqueue(c *wsClient, msg WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		c.trySend(msg)
	}
}

func (h *Hub) message(t MessageType, requestID string, data map[string]interface{}) WSMessage {
	return WSMessage{
		Type:      t,
		Data:      data,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// PublishFinding broadcasts f to every client subscribed to path. Its
// signature matches monitor.WithFindingHook.
func (h *Hub) PublishFinding(path string, f schemas.Finding) {
	msg := h.message(MsgTypeFinding, "", map[string]interface{}{
		"path":    path,
		"finding": f,
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.accepts(path) {
			c.trySend(msg)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.logger.Debug("Hub closed.")
}

// ServeWS upgrades the request and streams findings until the peer or the
// hub goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		h.logger.Warn("Failed to upgrade connection to WebSocket", zap.Error(err))
		return
	}

	client := &wsClient{
		hub:  h,
		conn: conn,
		send: make(chan WSMessage, sendChannelSize),
	}
	if !h.register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.logger.Info("WebSocket client connected.", zap.String("remoteAddr", r.RemoteAddr))

	go client.writePump()
	client.readPump()
}

// readPump handles Subscribe requests and pongs. It blocks until the
// connection fails or is closed.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.hub.logger.Error("Failed to set initial read deadline", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var incoming WSMessage
		if err := c.conn.ReadJSON(&incoming); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket closed unexpectedly", zap.Error(err))
			} else {
				c.hub.logger.Debug("WebSocket connection closed.")
			}
			return
		}
		c.processMessage(incoming)
	}
}

func (c *wsClient) processMessage(msg WSMessage) {
	switch msg.Type {
	case MsgTypeSubscribe:
		raw, _ := msg.Data["path"].(string)
		path := ""
		if raw != "" {
			if !filepath.IsAbs(raw) {
				c.sendError(msg.RequestID, "Subscribe path must be absolute.")
				return
			}
			path = filepath.Clean(raw)
		}
		c.setFilter(path)
		c.hub.enqueue(c, c.hub.message(MsgTypeSubscribed, msg.RequestID, map[string]interface{}{"path": path}))
	default:
		c.hub.logger.Warn("Received unknown message type from client", zap.String("type", string(msg.Type)))
		c.sendError(msg.RequestID, "Unknown or unsupported message type: "+string(msg.Type))
	}
}

func (c *wsClient) sendError(requestID, message string) {
	c.hub.enqueue(c, c.hub.message(MsgTypeSystemError, requestID, map[string]interface{}{"error": message}))
}

// writePump is the only writer on conn. It exits when send is closed or a
// write fails.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.logger.Warn("Error writing JSON message to WebSocket", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.logger.Warn("Error sending PING message to WebSocket", zap.Error(err))
				return
			}
		}
	}
}
