// Package feed carries lead change notifications from the store to every
// open staff view.
package feed

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
)

// Op is the kind of change.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Event announces a committed change to one lead. City and AssignedTo are the
// values after the change (before it, for deletes) so receivers can decide
// visibility without a fetch.
type Event struct {
	AssignedTo *string `json:"assignedTo,omitempty"`
	Op         Op      `json:"op"`
	ID         string  `json:"id"`
	City       string  `json:"city"`
	Version    int64   `json:"version"`
}

// Decode parses a JSON event, as sent in a NOTIFY payload.
func Decode(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode lead event: %w", err)
	}
	switch ev.Op {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return Event{}, fmt.Errorf("failed to decode lead event: unknown op %q", ev.Op)
	}
	if ev.ID == "" {
		return Event{}, fmt.Errorf("failed to decode lead event: missing id")
	}
	return ev, nil
}

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(ev Event)
}

// Hub fans events out to subscribers. Each subscriber has its own bounded
// buffer; a full buffer drops the event for that subscriber only.
type Hub struct {
	log    *logger.Logger
	onDrop func()
	subs   map[int]chan Event
	mu     sync.RWMutex
	next   int
	closed bool
}

// NewHub creates an empty Hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{log: log, subs: make(map[int]chan Event)}
}

// OnDrop registers a callback run whenever an event is dropped.
func (h *Hub) OnDrop(fn func()) {
	h.mu.Lock()
	h.onDrop = fn
	h.mu.Unlock()
}

// Subscribe returns a channel of events and a function that ends the
// subscription and closes the channel. Calling the function twice is safe.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
			h.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warn("Dropped lead event for slow subscriber", map[string]interface{}{
				"subscriber": id,
				"lead_id":    ev.ID,
				"op":         string(ev.Op),
			})
			if h.onDrop != nil {
				h.onDrop()
			}
		}
	}
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions receive a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
