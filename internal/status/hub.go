// Package status exposes the scheduler's live state: a snapshot endpoint and
// a websocket feed of task transitions.
package status

import (
	"sync"

	"github.com/saulo-duarte/chronos-autopilot/internal/scheduler"
)

const subscriberBuffer = 64

// Hub fans scheduler transitions out to websocket subscribers. Publish never
// blocks; a subscriber that falls behind loses transitions.
type Hub struct {
	mu      sync.Mutex
	subs    map[chan scheduler.Transition]struct{}
	dropped uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan scheduler.Transition]struct{})}
}

// Observe has the scheduler.Observer signature.
func (h *Hub) Observe(t scheduler.Transition) {
	h.Publish(t)
}

func (h *Hub) Publish(t scheduler.Transition) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- t:
		default:
			h.dropped++
		}
	}
}

func (h *Hub) Subscribe() (<-chan scheduler.Transition, func()) {
	ch := make(chan scheduler.Transition, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
