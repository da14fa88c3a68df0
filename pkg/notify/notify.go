// Package notify is the in-process event fanout the core uses to tell the UI
// layer about state changes. Interfaces are data oriented; nothing here
// touches rendering.
package notify

import (
	"context"
	"sync"
)

// EventKind classifies a change notification.
type EventKind string

const (
	EventMessageUpdated EventKind = "message_updated"
	EventPaymentUpdated EventKind = "payment_updated"
	EventThreadUpdated  EventKind = "thread_updated"
)

// Event describes one record change.
type Event struct {
	Kind EventKind `json:"kind"`
	Id   string    `json:"id"`
}

// Publisher defines the interface for publishing change events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Hub fans events out to subscribers. Slow subscribers drop events rather
// than block the sync loops.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[int]chan Event{}}
}

// Make sure we conform to the interface.
var _ Publisher = (*Hub)(nil)

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a listener. The returned cancel func removes it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, 64)
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}
