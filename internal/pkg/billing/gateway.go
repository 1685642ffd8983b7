package billing

import "context"

// Gateway is the abstract boundary to the external payment provider. All
// components depend on this port; the Stripe adapter and the in-memory fake
// are the two implementations. Expected misses (customer gone on the
// provider side) are reported via ok=false, not errors.
type Gateway interface {
	RetrieveCustomer(ctx context.Context, customerID string) (c *Customer, ok bool, err error)
	CreateCustomer(ctx context.Context, email, name string) (*Customer, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	NewCheckoutSession(ctx context.Context, spec CheckoutSessionSpec) (*CheckoutSession, error)
	NewPortalSession(ctx context.Context, spec PortalSessionSpec) (*PortalSession, error)
	ListProducts(ctx context.Context) ([]Product, error)
}
