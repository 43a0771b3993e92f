package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Message is one notification sent to connected renderer clients.
type Message struct {
	Type    string   `json:"type"`
	Created []string `json:"created,omitempty"`
}

// Hub tracks websocket clients and broadcasts document-changed
// notifications after each committed batch.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	logger  zerolog.Logger
}

var upgrader = websocket.Upgrader{
	// Browser clients connect from the editor's own origin or a dev
	// server; CORS policy is handled at the HTTP layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewHub creates an empty client hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
	}
}

// Add registers a client connection and starts draining its reads so pings
// and close frames are processed.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().Int("totalClients", total).Msg("Renderer client connected")

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.Remove(conn)
				return
			}
		}
	}()
}

// Remove drops a client connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().Int("remainingClients", total).Msg("Renderer client disconnected")
}

// Broadcast sends a message to every connected client, dropping clients
// whose connection has gone away.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			h.Remove(conn)
		}
	}
}
