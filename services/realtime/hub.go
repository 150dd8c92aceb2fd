package realtime

import (
	"sync"
	"time"

	"chefly/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types pushed to clients. notification:new mirrors a freshly created
// in-app record; read/deleted keep every open tab in sync after a mutation.
const (
	EventNotificationNew     = "notification:new"
	EventNotificationRead    = "notification:read"
	EventNotificationDeleted = "notification:deleted"
)

// Message is the wire format for server->client pushes.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Connection wraps a websocket connection with its owner.
type Connection struct {
	conn     *websocket.Conn
	userID   string
	lastSeen time.Time
	mu       sync.Mutex // serializes writes; gorilla allows one writer at a time
}

// Touch refreshes the liveness timestamp, called from the pong handler.
func (c *Connection) Touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *Connection) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub owns the live websocket connection set, keyed by userID. Connections
// open and close independently of dispatches, so every operation is safe for
// concurrent use; a send racing a close is treated as a no-op.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{}
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]map[*Connection]struct{}),
	}
}

// Add registers a connection for a user and returns its handle.
func (h *Hub) Add(userID string, conn *websocket.Conn) *Connection {
	c := &Connection{conn: conn, userID: userID, lastSeen: time.Now()}

	h.mu.Lock()
	if _, ok := h.connections[userID]; !ok {
		h.connections[userID] = make(map[*Connection]struct{})
	}
	h.connections[userID][c] = struct{}{}
	total := len(h.connections[userID])
	h.mu.Unlock()

	utils.GetLogger().Debug("ws connected",
		zap.String("userId", userID), zap.Int("connections", total))
	return c
}

// Remove drops and closes a connection. Safe to call more than once.
func (h *Hub) Remove(c *Connection) {
	h.mu.Lock()
	if conns, ok := h.connections[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.connections, c.userID)
		}
	}
	h.mu.Unlock()

	_ = c.conn.Close()
}

// ConnectionCount returns the number of live connections for a user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// Broadcast sends a message to every open connection of one user and returns
// how many connections were reached. Zero connections is a no-op, not an
// error; a connection failing mid-send is dropped.
func (h *Hub) Broadcast(userID string, msg Message) int {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.connections[userID]))
	for c := range h.connections[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.writeJSON(msg); err != nil {
			utils.GetLogger().Debug("ws send failed, dropping connection",
				zap.String("userId", userID), zap.Error(err))
			h.Remove(c)
			continue
		}
		sent++
	}
	return sent
}

// Heartbeat pings all connections on the given interval and reaps the ones
// that stopped answering. Runs until the process exits.
func (h *Hub) Heartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		var stale, live []*Connection
		for _, conns := range h.connections {
			for c := range conns {
				c.mu.Lock()
				idle := time.Since(c.lastSeen)
				c.mu.Unlock()
				if idle > 2*interval {
					stale = append(stale, c)
				} else {
					live = append(live, c)
				}
			}
		}
		h.mu.RUnlock()

		for _, c := range stale {
			h.Remove(c)
		}
		for _, c := range live {
			c.mu.Lock()
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			c.mu.Unlock()
		}
	}
}
