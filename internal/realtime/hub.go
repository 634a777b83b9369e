package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Event is the frame pushed to every connected dashboard.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

type clientGauge interface {
	SetRealtimeClients(n int)
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts domain events over websocket connections. Slow clients are
// dropped rather than allowed to block publishers.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	closed   bool
	upgrader websocket.Upgrader
	gauge    clientGauge
	logger   *zap.Logger
}

// NewHub constructs a hub. allowedOrigins empty accepts every origin.
func NewHub(allowedOrigins []string, gauge clientGauge, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		gauge:  gauge,
		logger: logger,
	}
}

// Publish sends an event to all clients. It never blocks on a client.
func (h *Hub) Publish(eventType string, payload interface{}) {
	if h == nil {
		return
	}
	frame, err := json.Marshal(Event{Type: eventType, Payload: payload, At: time.Now().UTC()})
	if err != nil {
		h.logger.Warn("realtime event encode failed", zap.String("event", eventType), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("dropping slow realtime client", zap.String("remote", c.conn.RemoteAddr().String()))
			h.removeLocked(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and registers the connection.
// @Summary Live timetable feed
// @Tags Realtime
// @Success 101 {string} string "Switching Protocols"
// @Router /ws [get]
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[cl] = struct{}{}
	h.reportLocked()
	h.mu.Unlock()

	h.logger.Debug("realtime client connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writePump(cl)
	h.readPump(cl)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// readPump only consumes control frames; the feed is one-way.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("realtime read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.reportLocked()
}

func (h *Hub) reportLocked() {
	if h.gauge != nil {
		h.gauge.SetRealtimeClients(len(h.clients))
	}
}
