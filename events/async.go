package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nemopss/budgetly/logging"
)

const (
	DefaultQueueSize = 256
	drainTimeout     = 10 * time.Second
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// Async hands events to a single background sender so that a slow or reconnecting broker
// never holds up the request that produced the event. A full queue drops the event.
type Async struct {
	inner  Publisher
	logger *logging.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

func NewAsync(inner Publisher, size int, logger *logging.Logger) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = logging.Nop()
	}
	a := &Async{
		inner:  inner,
		logger: logger,
		queue:  make(chan Event, size),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.queue {
		if err := a.inner.Publish(context.Background(), e); err != nil {
			a.logger.Warn("Failed to publish event", logging.FieldEvent, e.Type, logging.FieldError, err)
		}
	}
}

// Publish enqueues e without blocking.
func (a *Async) Publish(_ context.Context, e Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrQueueClosed
	}
	select {
	case a.queue <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events, waits up to drainTimeout for the queue to empty and then
// closes the inner publisher.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(drainTimeout):
		a.logger.Warn("Event queue not drained before shutdown", "pending", len(a.queue))
	}
	return a.inner.Close()
}
