package notify

import (
	"sync"
)

// Observer buffer size. A subscriber that falls this far behind starts
// losing events; delivery is at-most-once by contract.
const observerBuffer = 16

// Hub fans events out to every currently-subscribed observer. No
// persistence, no replay: observers that subscribe after a broadcast
// never see it, and slow observers are skipped rather than waited on.
type Hub struct {
	mu        sync.RWMutex
	observers map[chan Envelope]struct{}

	// onCount, when set, is told the observer count after every
	// subscribe/unsubscribe (used for the connected-observers gauge).
	onCount func(n int)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{observers: make(map[chan Envelope]struct{})}
}

// OnObserverCount registers a callback for observer-count changes.
func (h *Hub) OnObserverCount(fn func(n int)) {
	h.mu.Lock()
	h.onCount = fn
	h.mu.Unlock()
}

// Subscribe registers an observer and returns its channel plus an
// unsubscribe func. Observers receive all events; any filtering is
// their own business.
func (h *Hub) Subscribe() (<-chan Envelope, func()) {
	ch := make(chan Envelope, observerBuffer)
	h.mu.Lock()
	h.observers[ch] = struct{}{}
	n := len(h.observers)
	fn := h.onCount
	h.mu.Unlock()
	if fn != nil {
		fn(n)
	}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.observers, ch)
			n := len(h.observers)
			fn := h.onCount
			h.mu.Unlock()
			close(ch)
			if fn != nil {
				fn(n)
			}
		})
	}
	return ch, unsubscribe
}

// Broadcast hands env to every observer without blocking. An observer
// with a full buffer misses the event.
func (h *Hub) Broadcast(env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.observers {
		select {
		case ch <- env:
		default:
		}
	}
}

// Observers returns the current subscriber count.
func (h *Hub) Observers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}
