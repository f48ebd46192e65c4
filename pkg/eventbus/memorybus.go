package eventbus

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus used by unit tests and as the degradation
// buffer's drain target when the real event bus is simulated as down.
type MemoryBus struct {
	mu          sync.Mutex
	subscribers map[string][]subscriber
	closed      bool
}

type subscriber struct {
	group   string
	handler Handler
}

// NewMemoryBus returns a ready-to-use in-memory bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subscribers: make(map[string][]subscriber)}
}

// Publish delivers record synchronously to every registered consumer group
// on topic. A handler error is swallowed here (there is no redelivery queue
// in the in-memory bus) — tests should assert on handler side effects
// directly rather than relying on retry semantics.
func (b *MemoryBus) Publish(ctx context.Context, topic, key string, record []byte) error {
	b.mu.Lock()
	subs := append([]subscriber(nil), b.subscribers[topic]...)
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.handler(ctx, key, record)
	}
	return nil
}

// Subscribe registers handler under group for topic.
func (b *MemoryBus) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], subscriber{group: group, handler: handler})
	return nil
}

// Close marks the bus closed; further publishes are no-ops.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subscribers = nil
	return nil
}
