package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/mwellner/subhub/internal/pkg/billing"
	"github.com/mwellner/subhub/internal/pkg/usercontext"
)

// SignatureHeader carries the webhook signature on inbound deliveries.
const SignatureHeader = "Stripe-Signature"

// HandleBillingWebhook receives provider webhook deliveries. The raw body is
// passed through untouched so signature verification sees the exact wire
// bytes. 400 tells the provider the delivery is bad, 5xx makes it retry.
func HandleBillingWebhook(c *fiber.Ctx) error {
	signatures := c.GetReqHeaders()[SignatureHeader]
	if len(signatures) != 1 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Exactly one signature header is required")
	}

	err := billingService.ProcessWebhook(c.Context(), c.Body(), signatures[0])
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"received": true})
	case errors.Is(err, billing.ErrInvalidSignature):
		return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
	case errors.Is(err, billing.ErrValidation):
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Malformed webhook payload")
	default:
		log.Errorf("webhook processing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Webhook processing failed")
	}
}

// HandleCreateCheckoutSession opens a provider-hosted checkout for the caller.
func HandleCreateCheckoutSession(c *fiber.Ctx) error {
	var req struct {
		PriceID string `json:"priceId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	userCtx := usercontext.GetUserContext(c)
	session, err := billingService.CreateCheckoutSession(c.Context(), billing.AccountIdentity{
		Email:      userCtx.Email,
		Name:       userCtx.Name,
		CustomerID: userCtx.BillingCustomerID,
	}, req.PriceID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrValidation):
			return jsonError(c, fiber.StatusBadRequest, "validation_error", "priceId is required")
		case errors.Is(err, billing.ErrAccountNotFound):
			return jsonError(c, fiber.StatusNotFound, "not_found", "Account not found")
		default:
			log.Errorf("checkout session for %s failed: %v", userCtx.Email, err)
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not create checkout session")
		}
	}

	return c.JSON(session)
}

// HandleCreatePortalSession opens the provider-hosted billing portal.
func HandleCreatePortalSession(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	session, err := billingService.CreatePortalSession(c.Context(), billing.AccountIdentity{
		Email:      userCtx.Email,
		CustomerID: userCtx.BillingCustomerID,
	})
	if err != nil {
		if errors.Is(err, billing.ErrValidation) {
			return jsonError(c, fiber.StatusBadRequest, "validation_error", "Account has no billing profile yet")
		}
		log.Errorf("portal session for %s failed: %v", userCtx.Email, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not create portal session")
	}

	return c.JSON(session)
}

// HandleListProducts returns the provider's purchasable catalog.
func HandleListProducts(c *fiber.Ctx) error {
	products, err := billingService.ListProducts(c.Context())
	if err != nil {
		log.Errorf("listing products failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Could not load products")
	}
	return c.JSON(fiber.Map{"products": products})
}
