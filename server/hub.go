package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/onnwee/livechat/chat"
	"github.com/onnwee/livechat/telemetry"
)

// Hub fans chat items out to live subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the item and the drop is counted.
type Hub struct {
	buffer int

	mu     sync.RWMutex
	subs   map[string]chan chat.ChatItem
	closed bool
}

// NewHub returns a hub whose subscribers get buffer slots each (minimum 1).
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{buffer: buffer, subs: make(map[string]chan chat.ChatItem)}
}

// Subscribe registers a subscriber. The returned channel is closed by cancel
// or by Close. After Close, Subscribe returns an already-closed channel.
func (h *Hub) Subscribe() (string, <-chan chat.ChatItem, func()) {
	id := uuid.NewString()
	ch := make(chan chat.ChatItem, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return id, ch, func() {}
	}
	h.subs[id] = ch
	n := len(h.subs)
	h.mu.Unlock()
	telemetry.SetHubSubscribers(n)

	var once sync.Once
	return id, ch, func() { once.Do(func() { h.unsubscribe(id) }) }
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(ch)
	}
	n := len(h.subs)
	h.mu.Unlock()
	if ok {
		telemetry.SetHubSubscribers(n)
	}
}

// Publish delivers item to every subscriber with room and returns how many
// subscribers dropped it.
func (h *Hub) Publish(item chat.ChatItem) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for _, ch := range h.subs {
		select {
		case ch <- item:
		default:
			dropped++
			telemetry.IncHubDropped()
		}
	}
	return dropped
}

// Len returns the current number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects all subscribers. Publishing after Close is a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	telemetry.SetHubSubscribers(0)
}
