// Package hub tracks viewer WebSocket connections per run.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xiaot623/algostream/internal/protocol"
)

// Connection is one viewer attachment. Writes are serialized by mu so the
// relay and the keepalive can share the socket.
type Connection struct {
	ID    string
	RunID string
	Conn  *websocket.Conn

	writeTimeout time.Duration
	mu           sync.Mutex
}

// Hub manages all viewer connections.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// runs maps run_id to the set of attached connection IDs
	runs map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		runs:        make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		done:        make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if h.runs[conn.RunID] == nil {
				h.runs[conn.RunID] = make(map[string]bool)
			}
			h.runs[conn.RunID][conn.ID] = true
			h.mu.Unlock()
			log.Printf("Connection registered: %s (run: %s)", conn.ID, conn.RunID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				if h.runs[conn.RunID] != nil {
					delete(h.runs[conn.RunID], conn.ID)
					if len(h.runs[conn.RunID]) == 0 {
						delete(h.runs, conn.RunID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("Connection unregistered: %s", conn.ID)
		}
	}
}

// NewConnection wraps an upgraded socket for a run.
func (h *Hub) NewConnection(ws *websocket.Conn, runID string, writeTimeout time.Duration) *Connection {
	return &Connection{
		ID:           "conn_" + uuid.New().String()[:8],
		RunID:        runID,
		Conn:         ws,
		writeTimeout: writeTimeout,
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister unregisters a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// GetRunCount returns the number of runs with at least one viewer.
func (h *Hub) GetRunCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.runs)
}

// ViewerCount returns the number of viewers attached to a run.
func (h *Hub) ViewerCount(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.runs[runID])
}

// Send writes one envelope as a text frame.
func (c *Connection) Send(ctx context.Context, msg protocol.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.Conn.WriteMessage(messageType, data)
}

// Ping writes a ping control frame.
func (c *Connection) Ping() error {
	return c.WriteMessage(websocket.PingMessage, nil)
}

// CloseNormal sends a normal closure frame.
func (c *Connection) CloseNormal(reason string) error {
	return c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
