package bus

import (
	"context"
	"sync"
	"time"

	"github.com/memgraft/memgraft/internal/pkg/errors"
	"github.com/memgraft/memgraft/internal/pkg/logger"
)

// MemoryBus fans events out to in-process subscribers. It is the
// default transport; a run with no subscribers publishes into the void
// at no cost.
type MemoryBus struct {
	log *logger.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool

	inflightWg sync.WaitGroup
}

// NewMemoryBus creates a new in-memory audit bus.
func NewMemoryBus(log *logger.Logger) *MemoryBus {
	return &MemoryBus{
		log:      log,
		handlers: make(map[string][]Handler),
	}
}

// Publish fans the event out to all subscribers of the topic.
// Handlers run asynchronously; a handler error is logged, never
// returned.
func (b *MemoryBus) Publish(ctx context.Context, topic string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errors.New(errors.CodeUnavailable, "bus is closed")
	}

	for _, handler := range b.handlers[topic] {
		b.inflightWg.Add(1)
		go func(h Handler) {
			defer b.inflightWg.Done()
			if err := h(ctx, event); err != nil {
				b.log.WithError(err).Warn("audit handler error", "topic", topic)
			}
		}(handler)
	}

	return nil
}

// Subscribe registers a handler for events on a topic.
func (b *MemoryBus) Subscribe(_ context.Context, topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New(errors.CodeUnavailable, "bus is closed")
	}

	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

// Close closes the bus, waiting briefly for in-flight handlers.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.inflightWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		b.log.Warn("audit bus drain timeout, some handlers may not have completed")
	}

	b.mu.Lock()
	b.handlers = nil
	b.mu.Unlock()

	return nil
}
