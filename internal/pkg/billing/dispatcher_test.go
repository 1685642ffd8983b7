package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventKind(t *testing.T) {
	for eventType, want := range map[string]EventKind{
		"checkout.session.completed":    EventCheckoutCompleted,
		"invoice.payment_succeeded":     EventInvoiceSucceeded,
		"invoice.payment_failed":        EventInvoiceFailed,
		"customer.subscription.deleted": EventSubscriptionDeleted,
		"customer.deleted":              EventCustomerDeleted,
		"customer.subscription.updated": EventUnknown,
		"":                              EventUnknown,
	} {
		assert.Equal(t, want, ParseEventKind(eventType), eventType)
	}
}

func TestDispatchRoutesToHandler(t *testing.T) {
	var got string
	record := func(name string) HandlerFunc {
		return func(ctx context.Context, ev *Event) error {
			got = name
			return nil
		}
	}
	d := NewDispatcher(map[EventKind]HandlerFunc{
		EventCheckoutCompleted:   record("checkout"),
		EventInvoiceSucceeded:    record("invoice-ok"),
		EventInvoiceFailed:       record("invoice-failed"),
		EventSubscriptionDeleted: record("sub-deleted"),
		EventCustomerDeleted:     record("customer-deleted"),
	})

	ev := &Event{ID: "evt_1", Type: "invoice.payment_failed", Created: time.Now()}
	require.NoError(t, d.Dispatch(context.Background(), ev))
	assert.Equal(t, "invoice-failed", got)
}

func TestDispatchIgnoresUnknownEventType(t *testing.T) {
	called := false
	noop := func(ctx context.Context, ev *Event) error {
		called = true
		return nil
	}
	d := NewDispatcher(map[EventKind]HandlerFunc{
		EventCheckoutCompleted:   noop,
		EventInvoiceSucceeded:    noop,
		EventInvoiceFailed:       noop,
		EventSubscriptionDeleted: noop,
		EventCustomerDeleted:     noop,
	})

	ev := &Event{ID: "evt_1", Type: "charge.refunded", Created: time.Now()}
	require.NoError(t, d.Dispatch(context.Background(), ev))
	assert.False(t, called)
}

func TestNewDispatcherPanicsOnIncompleteTable(t *testing.T) {
	assert.Panics(t, func() {
		NewDispatcher(map[EventKind]HandlerFunc{
			EventCheckoutCompleted: func(ctx context.Context, ev *Event) error { return nil },
		})
	})
}
