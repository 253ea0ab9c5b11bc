package parley

import "sync"

// Change signals that the value stored under Key was modified. External is
// set when the write came from another process.
type Change struct {
	Key      string
	External bool
}

// Hub is a same-process publish/subscribe channel for store changes.
// Publish never blocks: each subscriber has a one-slot buffer and a pending
// signal absorbs later ones until it is received.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
	closed bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Change)}
}

// Subscribe returns a channel of changes and a function that unsubscribes
// and closes the channel.
func (h *Hub) Subscribe() (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Change, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers c to every subscriber.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Close unsubscribes everyone. Later subscriptions receive a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.closed = true
}
