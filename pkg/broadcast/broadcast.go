package broadcast

import (
	"context"
	"sync"
)

// Hub fans messages out to subscribers of a topic. Delivery never blocks
// the publisher: a subscriber whose buffer is full misses the message.
type Hub[T any] struct {
	mu     sync.RWMutex
	topics map[string]map[*subscription[T]]struct{}
	buffer int
	closed bool
}

type subscription[T any] struct {
	ch   chan T
	once sync.Once
}

func (s *subscription[T]) close() {
	s.once.Do(func() { close(s.ch) })
}

// NewHub creates a Hub with the given per-subscriber buffer size.
func NewHub[T any](buffer int) *Hub[T] {
	return &Hub[T]{
		topics: make(map[string]map[*subscription[T]]struct{}),
		buffer: max(buffer, 1),
	}
}

// Subscribe returns a channel receiving messages published to topic. The
// channel is closed when ctx is done, when unsubscribe is called or when
// the hub is closed.
func (h *Hub[T]) Subscribe(ctx context.Context, topic string) (<-chan T, func()) {
	sub := &subscription[T]{ch: make(chan T, h.buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.close()
		return sub.ch, func() {}
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*subscription[T]]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if subs, ok := h.topics[topic]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
		h.mu.Unlock()
		sub.close()
	}

	stop := context.AfterFunc(ctx, unsubscribe)
	return sub.ch, func() {
		stop()
		unsubscribe()
	}
}

// Publish delivers msg to every current subscriber of topic and returns how
// many received it.
func (h *Hub[T]) Publish(topic string, msg T) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.topics[topic] {
		select {
		case sub.ch <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of subscribers of topic.
func (h *Hub[T]) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close closes every subscription. Later subscriptions are closed at once.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for topic, subs := range h.topics {
		for sub := range subs {
			sub.close()
		}
		delete(h.topics, topic)
	}
}
