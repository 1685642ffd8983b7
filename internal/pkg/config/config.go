package config

import (
	"errors"
	"strings"
	"time"

	"github.com/mwellner/subhub/internal/pkg/entitlements"
	"github.com/mwellner/subhub/internal/pkg/env"
)

// Config is the immutable process configuration, built once at startup and
// passed into every component that needs it. Nothing here is mutated after
// Load returns.
type Config struct {
	JWT     JWT
	Billing Billing
}

type JWT struct {
	Secret   string
	TokenTTL time.Duration
	// ActionTokenTTL bounds single-purpose tokens (password reset, email confirm).
	ActionTokenTTL time.Duration
}

// Billing carries the payment-provider configuration: API credentials, the
// webhook shared secret, the product→tier mapping and the checkout/portal
// URLs.
type Billing struct {
	SecretKey     string
	WebhookSecret string

	// ProductTiers maps provider product identifiers to internal tiers.
	ProductTiers map[string]entitlements.Tier

	// FreeTierEnabled re-applies the free tier on downgrade and assigns it
	// to fresh accounts instead of leaving them without entitlements.
	FreeTierEnabled bool

	CheckoutSuccessURL string
	CheckoutCancelURL  string
	PortalReturnURL    string
}

// Load builds the configuration from the environment. env.SetupEnvFile must
// have been called first.
func Load() *Config {
	tiers := make(map[string]entitlements.Tier)
	for tier, key := range map[entitlements.Tier]string{
		entitlements.TierBasic:      "BILLING_PRODUCT_BASIC",
		entitlements.TierPro:        "BILLING_PRODUCT_PRO",
		entitlements.TierEnterprise: "BILLING_PRODUCT_ENTERPRISE",
	} {
		if id := strings.TrimSpace(env.GetEnv(key, "")); id != "" {
			tiers[id] = tier
		}
	}

	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:"+env.GetEnv("APP_PORT", "4000")), "/")

	return &Config{
		JWT: JWT{
			Secret:         env.GetEnv("JWT_SECRET", ""),
			TokenTTL:       8 * time.Hour,
			ActionTokenTTL: time.Hour,
		},
		Billing: Billing{
			SecretKey:          env.GetEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:      env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
			ProductTiers:       tiers,
			FreeTierEnabled:    env.GetEnv("BILLING_FREE_TIER_ENABLED", "true") == "true",
			CheckoutSuccessURL: env.GetEnv("BILLING_SUCCESS_URL", base+"/billing/success"),
			CheckoutCancelURL:  env.GetEnv("BILLING_CANCEL_URL", base+"/billing/cancel"),
			PortalReturnURL:    env.GetEnv("BILLING_PORTAL_RETURN_URL", base+"/account"),
		},
	}
}

// Validate reports configuration errors that would break core flows.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("JWT_SECRET is not configured")
	}
	if strings.TrimSpace(c.Billing.WebhookSecret) == "" {
		return errors.New("STRIPE_WEBHOOK_SECRET is not configured")
	}
	return nil
}

// TierForProduct maps a provider product id to an internal tier. ok is false
// when no mapping is configured.
func (b Billing) TierForProduct(productID string) (entitlements.Tier, bool) {
	t, ok := b.ProductTiers[strings.TrimSpace(productID)]
	return t, ok
}
