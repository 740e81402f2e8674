package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// client wraps one websocket connection with its write guard. gorilla
// permits at most one concurrent writer per connection, so every write
// (deadline included) goes through mu.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub is the connection registry: it owns the mapping from user id to
// that user's live websocket connections. A user may hold several
// connections (for example one per device); Send fans out to all of them.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]*client
}

// NewHub creates an empty connection registry.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*websocket.Conn]*client)}
}

// Register attaches a connection to a user.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]*client)
	}
	h.conns[userID][conn] = &client{conn: conn}
}

// Unregister detaches a connection from a user and closes it.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
	_ = conn.Close()
}

// Send pushes a payload to every live connection of the user. A user
// with no connections is not an error; the push is simply dropped.
func (h *Hub) Send(userID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.conns[userID]))
	for _, c := range h.conns[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var lastErr error
	for _, c := range targets {
		if err := c.write(data); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// ConnectionCount reports how many connections a user currently holds.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}
