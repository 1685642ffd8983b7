package billing

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// EventKind is the closed set of provider event types this engine reconciles.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckoutCompleted
	EventInvoiceSucceeded
	EventInvoiceFailed
	EventSubscriptionDeleted
	EventCustomerDeleted
)

// ParseEventKind maps a provider event-type tag onto the closed enum.
// Unrecognized tags map to EventUnknown for forward compatibility with new
// provider event types.
func ParseEventKind(eventType string) EventKind {
	switch strings.TrimSpace(eventType) {
	case "checkout.session.completed":
		return EventCheckoutCompleted
	case "invoice.payment_succeeded":
		return EventInvoiceSucceeded
	case "invoice.payment_failed":
		return EventInvoiceFailed
	case "customer.subscription.deleted":
		return EventSubscriptionDeleted
	case "customer.deleted":
		return EventCustomerDeleted
	default:
		return EventUnknown
	}
}

// HandlerFunc reconciles one verified event.
type HandlerFunc func(ctx context.Context, ev *Event) error

// Dispatcher routes verified events to their reconciliation handler. It is a
// pure routing step with no business logic of its own.
type Dispatcher struct {
	handlers map[EventKind]HandlerFunc
}

// NewDispatcher builds the dispatch table. Every EventKind except
// EventUnknown must have a handler; missing entries are a programming error
// surfaced at construction.
func NewDispatcher(handlers map[EventKind]HandlerFunc) *Dispatcher {
	for _, kind := range []EventKind{
		EventCheckoutCompleted,
		EventInvoiceSucceeded,
		EventInvoiceFailed,
		EventSubscriptionDeleted,
		EventCustomerDeleted,
	} {
		if _, ok := handlers[kind]; !ok {
			panic("billing: dispatcher handler table is incomplete")
		}
	}
	return &Dispatcher{handlers: handlers}
}

// Dispatch routes ev to its handler. Unrecognized event types are logged and
// discarded without error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event) error {
	kind := ParseEventKind(ev.Type)
	if kind == EventUnknown {
		log.Infof("billing: ignoring unhandled event type %s (%s)", ev.Type, ev.ID)
		return nil
	}
	return d.handlers[kind](ctx, ev)
}
