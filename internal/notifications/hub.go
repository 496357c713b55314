package notifications

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"projectarium/internal/middleware"
	"projectarium/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 8
	maxTotalConns   = 10000

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one notification stream connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	UserID uint
	Send   chan []byte
	once   sync.Once
}

// Hub maps user IDs to their open notification streams.
type Hub struct {
	mu    sync.RWMutex
	conns map[uint]map[*Client]struct{}
	total int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register attaches conn to userID. conn may be nil in tests.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	c := &Client{hub: h, conn: conn, UserID: userID, Send: make(chan []byte, sendBuffer)}
	m[c] = struct{}{}
	h.total++
	observability.WebSocketConnectionsTotal.Inc()
	return c, nil
}

// Unregister detaches c and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.conns[c.UserID]; ok {
		if _, exists := m[c]; exists {
			delete(m, c)
			h.total--
			observability.WebSocketConnectionsTotal.Dec()
		}
		if len(m) == 0 {
			delete(h.conns, c.UserID)
		}
	}
	h.mu.Unlock()
	c.once.Do(func() { close(c.Send) })
}

// Deliver queues payload on every stream of userID. Slow clients drop messages.
func (h *Hub) Deliver(userID uint, payload string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(payload)
	for c := range h.conns[userID] {
		select {
		case c.Send <- data:
		default:
			middleware.Logger.Warn("notification dropped, client buffer full", slog.Uint64("user_id", uint64(userID)))
		}
	}
}

// Connections returns the number of open streams for userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Serve pumps queued events to the connection until either side closes.
func (c *Client) Serve() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Info("notification stream closed", slog.Uint64("user_id", uint64(c.UserID)), slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
