package billing

import "fmt"

// BuildCheckoutSessionSpec validates the checkout inputs before any remote
// call is made.
func BuildCheckoutSessionSpec(customerID, priceID, successURL, cancelURL string) (CheckoutSessionSpec, error) {
	switch {
	case priceID == "":
		return CheckoutSessionSpec{}, fmt.Errorf("%w: priceId is required", ErrValidation)
	case successURL == "":
		return CheckoutSessionSpec{}, fmt.Errorf("%w: success URL is required", ErrValidation)
	case cancelURL == "":
		return CheckoutSessionSpec{}, fmt.Errorf("%w: cancel URL is required", ErrValidation)
	}
	return CheckoutSessionSpec{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	}, nil
}

// BuildPortalSessionSpec validates the portal inputs. A caller without a
// billing identity has nothing to manage yet.
func BuildPortalSessionSpec(customerID, returnURL string) (PortalSessionSpec, error) {
	if customerID == "" {
		return PortalSessionSpec{}, fmt.Errorf("%w: account has no billing identity", ErrValidation)
	}
	if returnURL == "" {
		return PortalSessionSpec{}, fmt.Errorf("%w: return URL is required", ErrValidation)
	}
	return PortalSessionSpec{CustomerID: customerID, ReturnURL: returnURL}, nil
}
