package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Subscription is one observer's view of the hub. Events arrive on C until
// Unsubscribe closes it. The channel is buffered; when an observer falls
// behind, new events for it are dropped rather than blocking the publisher.
type Subscription struct {
	C      <-chan Event
	ch     chan Event
	topics map[string]bool
}

// Hub is the in-process Broadcaster implementation. Observers subscribe to a
// set of topics and receive every event published to any of them.
//
// Safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	buffer  int
	dropped atomic.Uint64
}

// NewHub creates an empty hub. buffer is the per-subscriber channel depth;
// values below 1 are coerced to 1.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers an observer for the given topics and returns its
// subscription. At least one topic is expected; duplicates are collapsed.
func (h *Hub) Subscribe(topics ...string) *Subscription {
	sub := &Subscription{
		ch:     make(chan Event, h.buffer),
		topics: make(map[string]bool, len(topics)),
	}
	sub.C = sub.ch
	for _, t := range topics {
		sub.topics[t] = true
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes the observer and closes its channel. Calling it twice
// is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
	h.mu.Unlock()
}

// Publish delivers evt to every subscriber of topic. The send is
// non-blocking per observer: a full channel drops the event for that
// observer only, so one slow client cannot stall the rest or the caller.
func (h *Hub) Publish(topic string, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.topics[topic] {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			h.dropped.Add(1)
			log.Debug().Str("topic", topic).Str("event", evt.Name).Msg("subscriber lagging, event dropped")
		}
	}
}

// Dropped reports how many events were discarded due to lagging observers.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// SubscriberCount reports the number of registered observers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
