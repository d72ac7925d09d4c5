// Package broadcast is a gorilla/websocket fan-out hub implementing
// engine.Broadcaster: one goroutine per connected client, fed from a
// single Engine.Snapshot() pull per tick boundary. A client that falls
// behind is dropped rather than allowed to stall every future Publish.
package broadcast

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/terrarium/engine"
)

const (
	writeWait        = 5 * time.Second
	clientBufferSize = 4
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan engine.Snapshot
}

// Hub tracks connected broadcast clients and implements engine.Broadcaster.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub builds an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// ServeHTTP upgrades the request to a websocket and registers the
// resulting connection as a broadcast client. Mount it at the snapshot
// stream endpoint (terrariumd mounts it at "/ws").
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("broadcast: websocket upgrade failed", "err", err, "remote", r.RemoteAddr)
		return
	}
	c := &client{conn: conn, send: make(chan engine.Snapshot, clientBufferSize)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	go h.run(c)
}

func (h *Hub) run(c *client) {
	defer c.conn.Close()
	for snap := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.drop(c)
			return
		}
		if err := c.conn.WriteJSON(snap); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Publish implements engine.Broadcaster. It never blocks: a client whose
// send buffer is still full from a previous tick is dropped outright.
func (h *Hub) Publish(snap engine.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- snap:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount reports the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
