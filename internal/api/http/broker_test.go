package http

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/panic-alert/internal/coordinator"
)

// TestBroker_RoutesByTenant delivers events only to watchers of the same tenant.
func TestBroker_RoutesByTenant(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	a := b.Subscribe("a")
	other := b.Subscribe("b")

	b.Notify(context.Background(), coordinator.Event{TenantID: "a", Kind: coordinator.EventCleared, Revision: 3})

	select {
	case ev := <-a:
		require.Equal(t, uint64(3), ev.Revision)
	default:
		t.Fatal("expected an event for tenant a")
	}

	require.Empty(t, other)

	b.Unsubscribe(a)
	b.Unsubscribe(a)
	require.Equal(t, 1, b.Len())

	_, ok := <-a
	require.False(t, ok)
}

// TestBroker_SlowWatcherDoesNotBlock drops events once the buffer is full.
func TestBroker_SlowWatcherDoesNotBlock(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	ch := b.Subscribe("a")

	for range subscriberBuffer * 2 {
		b.Notify(context.Background(), coordinator.Event{TenantID: "a"})
	}

	require.Len(t, ch, subscriberBuffer)

	var nilBroker *Broker
	nilBroker.Notify(context.Background(), coordinator.Event{})
}
