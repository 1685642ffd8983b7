package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/product"
	"github.com/stripe/stripe-go/v79/subscription"
)

// StripeGateway is the provider-backed Gateway implementation.
type StripeGateway struct{}

// NewStripeGateway configures the Stripe client with the account secret key.
func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{}
}

func (g *StripeGateway) RetrieveCustomer(ctx context.Context, customerID string) (*Customer, bool, error) {
	if customerID == "" {
		return nil, false, nil
	}
	params := &stripe.CustomerParams{Params: stripe.Params{Context: ctx}}
	c, err := customer.Get(customerID, params)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("stripe retrieve customer: %w", err)
	}
	if c.Deleted {
		return nil, false, nil
	}
	return &Customer{ID: c.ID, Email: c.Email, Name: c.Name}, true, nil
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name string) (*Customer, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
		Name:   stripe.String(name),
	}
	c, err := customer.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create customer: %w", err)
	}
	return &Customer{ID: c.ID, Email: c.Email, Name: c.Name}, nil
}

func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}}
	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get subscription: %w", err)
	}

	out := &Subscription{
		ID:               sub.ID,
		Status:           string(sub.Status),
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		price := sub.Items.Data[0].Price
		if price != nil {
			out.PriceID = price.ID
			if price.Product != nil {
				out.ProductID = price.Product.ID
			}
		}
	}
	return out, nil
}

// NewCheckoutSession creates a subscription checkout with fixed policy: one
// line item at quantity 1, promotion codes allowed, billing address and
// tax-id collection required, customer name/address auto-updated.
func (g *StripeGateway) NewCheckoutSession(ctx context.Context, spec CheckoutSessionSpec) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(spec.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(spec.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:               stripe.String(spec.SuccessURL),
		CancelURL:                stripe.String(spec.CancelURL),
		AllowPromotionCodes:      stripe.Bool(true),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		TaxIDCollection: &stripe.CheckoutSessionTaxIDCollectionParams{
			Enabled: stripe.Bool(true),
		},
		CustomerUpdate: &stripe.CheckoutSessionCustomerUpdateParams{
			Name:    stripe.String("auto"),
			Address: stripe.String("auto"),
		},
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) NewPortalSession(ctx context.Context, spec PortalSessionSpec) (*PortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(spec.CustomerID),
		ReturnURL: stripe.String(spec.ReturnURL),
	}
	sess, err := portalsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create portal session: %w", err)
	}
	return &PortalSession{URL: sess.URL}, nil
}

func (g *StripeGateway) ListProducts(ctx context.Context) ([]Product, error) {
	params := &stripe.ProductListParams{
		ListParams: stripe.ListParams{Context: ctx},
		Active:     stripe.Bool(true),
	}
	params.AddExpand("data.default_price")

	var out []Product
	iter := product.List(params)
	for iter.Next() {
		p := iter.Product()
		entry := Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Active:      p.Active,
		}
		if p.DefaultPrice != nil {
			entry.PriceID = p.DefaultPrice.ID
		}
		out = append(out, entry)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe list products: %w", err)
	}
	return out, nil
}

func isNotFound(err error) bool {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return serr.HTTPStatusCode == http.StatusNotFound || serr.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}
