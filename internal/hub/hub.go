// Package hub fans processed post batches out to live websocket subscribers.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"citypulse/internal/domain"
)

// Batch is the wire format pushed to subscribers for each ingestion tick
// that produced new posts.
type Batch struct {
	Type      string        `json:"type"`
	Posts     []domain.Post `json:"posts"`
	Timestamp time.Time     `json:"timestamp"`
}

// Hub maintains the set of active subscribers and broadcasts batches to
// them. Connection lifetime belongs to the transport; the hub only drops a
// subscriber on explicit unregister or a failed send.
type Hub struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[*Subscriber]bool
}

func New(logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger.With("component", "hub"),
		subscribers: make(map[*Subscriber]bool),
	}
}

// Register adds a subscriber to the fan-out set.
func (h *Hub) Register(sub *Subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = true
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.Info("subscriber connected", "subscriber_count", count)
}

// Unregister removes a subscriber and closes its send channel. Safe to call
// more than once for the same subscriber.
func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	registered := h.subscribers[sub]
	if registered {
		delete(h.subscribers, sub)
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	if !registered {
		return
	}

	sub.closeSend()
	h.logger.Info("subscriber disconnected", "subscriber_count", count)
}

// Broadcast delivers one batch to every registered subscriber. A subscriber
// that cannot accept the message is unregistered; the rest still receive it.
func (h *Hub) Broadcast(posts []domain.Post) {
	message, err := json.Marshal(Batch{
		Type:      "posts",
		Posts:     posts,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("failed to marshal batch", "error", err)
		return
	}

	var failed []*Subscriber

	h.mu.RLock()
	for sub := range h.subscribers {
		select {
		case sub.send <- message:
		default:
			failed = append(failed, sub)
		}
	}
	delivered := len(h.subscribers) - len(failed)
	h.mu.RUnlock()

	for _, sub := range failed {
		h.logger.Warn("send failed, dropping subscriber")
		h.Unregister(sub)
	}

	h.logger.Debug("batch broadcast", "posts", len(posts), "delivered", delivered)
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
