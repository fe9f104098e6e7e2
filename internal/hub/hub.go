// Package hub fans the active output mode's wire reports out to WebSocket
// consumers. Each client subscribes to one player index; the reverse
// direction carries host-style output reports (rumble/LED) and
// administrative commands back into the core.
package hub

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hub manages WebSocket clients and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	count      int
	mu         sync.RWMutex
	log        *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Register adds a new client to the hub.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// BroadcastToPlayer sends a message to all clients subscribed to a player
// index.
func (h *Hub) BroadcastToPlayer(msg []byte, playerIndex int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if int(client.playerIndex.Load()) != playerIndex {
			continue
		}
		select {
		case client.send <- msg:
		default:
			// Client send buffer full, disconnect.
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// Run is the hub's main loop. Should be run in a goroutine; returns when
// ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.count = len(h.clients)
			h.mu.Unlock()
			h.log.Infof("viewer connected (total: %d)", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.count = len(h.clients)
			h.mu.Unlock()
			h.log.Infof("viewer disconnected (total: %d)", h.ClientCount())
		}
	}
}
