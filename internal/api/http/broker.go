package http

import (
	"context"
	"sync"

	"github.com/oshokin/panic-alert/internal/coordinator"
)

// subscriberBuffer is the number of pending events kept per watcher.
const subscriberBuffer = 16

// Broker fans out coordinator events to websocket watchers of the same tenant.
type Broker struct {
	mu      sync.Mutex
	clients map[chan coordinator.Event]string
}

// NewBroker constructs a broker.
func NewBroker() *Broker {
	return &Broker{clients: make(map[chan coordinator.Event]string)}
}

// Notify implements coordinator.Notifier. Slow watchers miss events instead of blocking.
func (b *Broker) Notify(_ context.Context, event coordinator.Event) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Sending under the lock keeps Unsubscribe from closing a channel mid-send.
	for ch, tenantID := range b.clients {
		if tenantID != event.TenantID {
			continue
		}

		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a watcher of one tenant.
func (b *Broker) Subscribe(tenantID string) chan coordinator.Event {
	ch := make(chan coordinator.Event, subscriberBuffer)

	b.mu.Lock()
	b.clients[ch] = tenantID
	b.mu.Unlock()

	return ch
}

// Unsubscribe removes a watcher and closes its channel.
func (b *Broker) Unsubscribe(ch chan coordinator.Event) {
	if ch == nil {
		return
	}

	b.mu.Lock()
	_, ok := b.clients[ch]
	delete(b.clients, ch)
	b.mu.Unlock()

	if ok {
		close(ch)
	}
}

// Len returns the number of connected watchers.
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.clients)
}
