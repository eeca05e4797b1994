package ws

import (
	"encoding/json"
	"sync"

	"coinflip_arena/internal/domain"
	"coinflip_arena/internal/logger"
)

// Hub fans arena events out to connected websocket subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
	}
}

// Broadcast pushes an event to every subscriber. Slow consumers are dropped
// rather than blocking the arena.
func (h *Hub) Broadcast(ev domain.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Error("marshal event", "type", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	var stale []*Client
	for c := range h.clients {
		select {
		case c.Send <- msg:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.Unregister(c)
	}
}

// ClientCount reports connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
