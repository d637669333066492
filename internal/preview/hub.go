package preview

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sitesmith/sitesmith/internal/metrics"
	"github.com/sitesmith/sitesmith/internal/models"
)

const writeWait = 2 * time.Second

// Hub fans content-tree events out to connected live-preview clients
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

// NewHub creates a hub accepting WebSocket connections from origin.
// An empty origin or "*" accepts any origin.
func NewHub(origin string) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if origin == "" || origin == "*" {
					return true
				}
				o := r.Header.Get("Origin")
				return o == "" || o == origin
			},
		},
	}
}

func (h *Hub) add(ws *websocket.Conn) {
	h.mu.Lock()
	h.clients[ws] = struct{}{}
	metrics.PreviewClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
}

func (h *Hub) remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	metrics.PreviewClients.Set(float64(len(h.clients)))
	h.mu.Unlock()
	_ = ws.Close()
}

// Publish sends ev to every connected client, dropping clients that fail.
func (h *Hub) Publish(ev models.PreviewEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to encode preview event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ws := range h.clients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			slog.Debug("Dropping preview client", "remote", ws.RemoteAddr().String(), "error", err)
			_ = ws.Close()
			delete(h.clients, ws)
		}
	}
	metrics.PreviewClients.Set(float64(len(h.clients)))
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and holds the connection until the client leaves.
// Incoming messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"welcome"}`)); err != nil {
		_ = ws.Close()
		return
	}

	h.add(ws)
	slog.Debug("Preview client connected", "remote", r.RemoteAddr)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(ws)
	slog.Debug("Preview client disconnected", "remote", r.RemoteAddr)
}
