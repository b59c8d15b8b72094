// Package stream pushes notification events to connected websocket clients.
package stream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/parishpush/internal/domain"
	"github.com/parishpush/internal/pkg/logger"
)

// Hub tracks live clients grouped by the parish they follow.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     log,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.parishID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.parishID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes the client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.parishID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, c.parishID)
		}
	}
	h.mu.Unlock()
}

// Publish delivers ev to this process's clients. It satisfies the same
// interface as the redis relay so services need not know which is wired.
func (h *Hub) Publish(_ context.Context, ev domain.Event) error {
	h.Deliver(ev)
	return nil
}

// Deliver sends ev to every client following ev.ParishID. Slow clients drop
// the message rather than block the hub.
func (h *Hub) Deliver(ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error(context.Background(), "stream: marshal event", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[ev.ParishID] {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected clients across all parishes.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
