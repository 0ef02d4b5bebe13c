package sse

import (
	"sync"
	"sync/atomic"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
)

// DefaultBuffer is the per-subscriber backlog before events are dropped
const DefaultBuffer = 16

// Subscription is one stream client listening on a single topic
type Subscription struct {
	topic   string
	events  chan notification.Event
	dropped atomic.Int64
	once    sync.Once
}

func (s *Subscription) Topic() string { return s.topic }

// Events is closed when the subscription is removed from the hub
func (s *Subscription) Events() <-chan notification.Event { return s.events }

// Dropped counts events skipped because the client fell behind
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// Hub routes lifecycle events to the subscribers of every topic the event names
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	buffer int
}

func NewHub() *Hub {
	return NewHubWithBuffer(DefaultBuffer)
}

func NewHubWithBuffer(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a subscription; the returned func removes it and is safe to call twice
func (h *Hub) Subscribe(topic string) (*Subscription, func()) {
	sub := &Subscription{topic: topic, events: make(chan notification.Event, h.buffer)}

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Subscription]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	h.mu.Unlock()

	return sub, func() { h.remove(sub) }
}

func (h *Hub) remove(sub *Subscription) {
	sub.once.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.topics[sub.topic], sub)
		if len(h.topics[sub.topic]) == 0 {
			delete(h.topics, sub.topic)
		}
		close(sub.events)
	})
}

// Broadcast delivers ev to the subscribers of ev.Topics() without blocking.
// Full subscribers miss the event and have their drop counter bumped.
func (h *Hub) Broadcast(ev notification.Event) (delivered, dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, topic := range ev.Topics() {
		for sub := range h.topics[topic] {
			select {
			case sub.events <- ev:
				delivered++
			default:
				sub.dropped.Add(1)
				dropped++
			}
		}
	}
	return delivered, dropped
}

// SubscriberCount returns the subscribers of one topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// TotalSubscribers returns the subscribers across all topics
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.topics {
		total += len(subs)
	}
	return total
}
