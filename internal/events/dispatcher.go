package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher decouples the transition engine from downstream consumers.
// Publish hands the event to an outbound queue and returns immediately;
// a slow or failing consumer can never block or fail the transaction
// that produced the event.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type asyncDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	queue     chan Event
	logger    *zap.Logger
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewAsyncDispatcher creates a dispatcher that delivers events from a
// buffered queue on a single background goroutine.
func NewAsyncDispatcher(logger *zap.Logger, buffer int) *asyncDispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &asyncDispatcher{
		listeners: make(map[EventType][]EventHandler),
		queue:     make(chan Event, buffer),
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues the event. When the queue is full, or the dispatcher
// has been closed, the event is dropped rather than blocking or
// panicking the caller; delivery is best-effort. The queue channel is
// never closed, so a publisher racing Close can at worst leave an
// undelivered event in the buffer.
func (d *asyncDispatcher) Publish(ctx context.Context, event Event) error {
	select {
	case <-d.stop:
		d.logger.Warn("dispatcher closed, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
		return nil
	default:
	}
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *asyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Close drains events already queued and stops the delivery goroutine.
func (d *asyncDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.stop)
		<-d.done
	})
}

func (d *asyncDispatcher) run() {
	defer close(d.done)
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop:
			for {
				select {
				case event := <-d.queue:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (d *asyncDispatcher) deliver(event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(context.Background(), event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
		}
	}
}
