package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAsyncDispatcherDelivers(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 8)

	var mu sync.Mutex
	var got []Event
	d.Subscribe(EventTicketStatusChanged, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketStatusChanged, TicketID: "t1"})
	assert.NoError(t, err)
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].TicketID)
}

func TestAsyncDispatcherHandlerFailureDoesNotStopDelivery(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 8)

	var mu sync.Mutex
	delivered := 0
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		return errors.New("downstream unavailable")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		mu.Lock()
		defer mu.Unlock()
		delivered++
		return nil
	})

	for i := 0; i < 3; i++ {
		_ = d.Publish(context.Background(), Event{Type: EventTicketCreated})
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, delivered)
}

func TestAsyncDispatcherPublishAfterClose(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 4)

	var mu sync.Mutex
	delivered := 0
	d.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error {
		mu.Lock()
		defer mu.Unlock()
		delivered++
		return nil
	})

	d.Close()

	// A publisher that outlives shutdown must not panic; its event is
	// dropped.
	err := d.Publish(context.Background(), Event{Type: EventTicketStatusChanged, TicketID: "late"})
	assert.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, delivered)
}

func TestAsyncDispatcherPublishNeverBlocks(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 1)

	// No subscriber draining; the queue fills and further publishes
	// must return immediately instead of blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			_ = d.Publish(context.Background(), Event{Type: EventTicketStatusChanged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full queue")
	}
	d.Close()
}
