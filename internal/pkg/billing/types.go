package billing

import "time"

// Customer is the provider-side representation of a paying party.
type Customer struct {
	ID    string
	Email string
	Name  string
}

// Subscription is the provider-neutral subscription shape consumed by the
// entitlement engine.
type Subscription struct {
	ID               string
	CustomerID       string
	ProductID        string
	PriceID          string
	Status           string
	CurrentPeriodEnd time.Time
}

// Product is a catalog entry passed through from the provider.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	PriceID     string `json:"price_id,omitempty"`
}

// CheckoutSessionSpec is the fully-resolved request for a checkout session.
type CheckoutSessionSpec struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the provider-hosted purchase flow handle.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"sessionUrl"`
}

// PortalSessionSpec is the request for a customer portal session.
type PortalSessionSpec struct {
	CustomerID string
	ReturnURL  string
}

// PortalSession is the provider-hosted billing management flow handle.
type PortalSession struct {
	URL string `json:"url"`
}

// AccountIdentity is the decoded caller identity the resolver works with:
// the account's email (identity key), display name and the billing customer
// id cached in the token, which may lag behind the stored one.
type AccountIdentity struct {
	Email      string
	Name       string
	CustomerID string
}
