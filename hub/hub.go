// Package hub fans task-list snapshots out to connected observers.
package hub

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Hub delivers every published snapshot to all subscribers. Publishing is
// fire-and-forget: a subscriber whose buffer is full misses that snapshot
// rather than blocking the mutation that produced it. Missed snapshots are
// harmless because the next one carries the full state again.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan []byte
}

func New() *Hub {
	return &Hub{subs: make(map[string]chan []byte)}
}

// Subscribe registers an observer and returns its id together with the
// channel snapshots arrive on.
func (h *Hub) Subscribe(bufSize int) (string, <-chan []byte) {
	id := ulid.Make().String()
	ch := make(chan []byte, bufSize)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

// Unsubscribe removes the observer and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
	h.mu.Unlock()
}

// Publish sends data to every subscriber, dropping it for subscribers
// whose buffer is full.
func (h *Hub) Publish(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- data:
		default:
			// buffer full, drop for this subscriber
		}
	}
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
