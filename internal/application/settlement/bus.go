// Package settlement carries settlement events from the request path to the
// single applier that mutates the ledger.
package settlement

import (
	"context"
	"errors"
	"sync"

	"birthpad-backend/internal/domain"
)

// Handler processes one event. Returned errors are logged by the bus and the
// event is not redelivered by the in-process bus.
type Handler func(ctx context.Context, ev domain.SettlementEvent) error

// Bus is a FIFO settlement queue. Publish never blocks on the consumer.
type Bus interface {
	Publish(ctx context.Context, ev domain.SettlementEvent) error
	// Consume delivers events to h until ctx is done or the bus is closed.
	Consume(ctx context.Context, h Handler) error
	Close() error
}

var ErrBusClosed = errors.New("settlement bus closed")

// MemoryBus is an unbounded in-process queue.
type MemoryBus struct {
	mu     sync.Mutex
	queue  []domain.SettlementEvent
	signal chan struct{}
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{signal: make(chan struct{}, 1)}
}

func (b *MemoryBus) Publish(ctx context.Context, ev domain.SettlementEvent) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.queue = append(b.queue, ev)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
	return nil
}

func (b *MemoryBus) next() (domain.SettlementEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return domain.SettlementEvent{}, false
	}
	ev := b.queue[0]
	b.queue[0] = domain.SettlementEvent{}
	b.queue = b.queue[1:]
	return ev, true
}

func (b *MemoryBus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *MemoryBus) Consume(ctx context.Context, h Handler) error {
	for {
		if _, err := b.Drain(ctx, h); err != nil {
			return err
		}
		if b.isClosed() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.signal:
		}
	}
}

// Drain synchronously delivers every queued event and returns how many were handled.
func (b *MemoryBus) Drain(ctx context.Context, h Handler) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		ev, ok := b.next()
		if !ok {
			return n, nil
		}
		logHandlerError(ev, h(ctx, ev))
		n++
	}
}

// Len reports the number of queued events.
func (b *MemoryBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	select {
	case b.signal <- struct{}{}:
	default:
	}
	return nil
}
