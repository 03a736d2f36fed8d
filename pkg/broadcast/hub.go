// Package broadcast implements the fan-out primitive behind the session
// channel: a named event published on the hub is delivered to every
// currently connected subscriber. There is no acknowledgment, no replay
// buffer and no per-subscriber filtering; listeners that connect after an
// event was published never see it, and a subscriber that falls behind
// drops events rather than slowing the publisher down.
package broadcast

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// subscriberBuffer bounds how far a subscriber may fall behind before
// events are dropped for it. Bursts of a few staggered emissions fit; a
// stalled websocket does not get to stall the schedulers.
const subscriberBuffer = 64

// Event is one published envelope: the channel name and its payload.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Marshal encodes the envelope for the wire.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Hub fans events out to all subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Publish delivers the event to every current subscriber. The send is
// non-blocking: a full subscriber channel means the event is dropped for
// that subscriber only.
func (h *Hub) Publish(event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- Event{Event: event, Data: data}:
		default:
		}
	}
}

// Subscribe registers a new listener and returns its channel.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes the listener and closes its channel. Unsubscribing
// twice is a no-op.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Subscribers reports the current listener count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
