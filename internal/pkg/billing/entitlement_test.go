package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwellner/subhub/app/models"
	"github.com/mwellner/subhub/internal/pkg/config"
	"github.com/mwellner/subhub/internal/pkg/entitlements"
)

func billingConfig(freeTier bool) config.Billing {
	return config.Billing{
		WebhookSecret: "whsec_test",
		ProductTiers: map[string]entitlements.Tier{
			"prod_basic": entitlements.TierBasic,
			"prod_pro":   entitlements.TierPro,
		},
		FreeTierEnabled:    freeTier,
		CheckoutSuccessURL: "https://app.example.com/billing/success",
		CheckoutCancelURL:  "https://app.example.com/billing/cancel",
		PortalReturnURL:    "https://app.example.com/account",
	}
}

func TestUpgradeAppliesTierAndLinksCustomer(t *testing.T) {
	periodEnd := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	eventAt := time.Now().Unix()
	gateway := newFakeGateway()
	gateway.subscriptions["sub_1"] = &Subscription{
		ID: "sub_1", CustomerID: "cus_001", ProductID: "prod_pro",
		Status: "active", CurrentPeriodEnd: periodEnd,
	}
	store := newFakeAccountStore(&models.User{Email: "alice@example.com", BillingCustomerID: "cus_001"})
	engine := NewEntitlementEngine(store, gateway, billingConfig(true))

	require.NoError(t, engine.Upgrade(context.Background(), "cus_001", "sub_1", eventAt))

	u := store.get("alice@example.com")
	assert.Equal(t, string(entitlements.TierPro), u.PlanTier)
	require.NotNil(t, u.PlanExpiresAt)
	assert.True(t, u.PlanExpiresAt.Equal(periodEnd))
	assert.Equal(t, eventAt, u.EntitlementVersion)
}

func TestUpgradeIsIdempotent(t *testing.T) {
	periodEnd := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	eventAt := time.Now().Unix()
	gateway := newFakeGateway()
	gateway.subscriptions["sub_1"] = &Subscription{
		ID: "sub_1", CustomerID: "cus_001", ProductID: "prod_basic",
		Status: "active", CurrentPeriodEnd: periodEnd,
	}
	store := newFakeAccountStore(&models.User{Email: "alice@example.com", BillingCustomerID: "cus_001"})
	engine := NewEntitlementEngine(store, gateway, billingConfig(true))

	require.NoError(t, engine.Upgrade(context.Background(), "cus_001", "sub_1", eventAt))
	first := *store.get("alice@example.com")
	require.NoError(t, engine.Upgrade(context.Background(), "cus_001", "sub_1", eventAt))
	second := *store.get("alice@example.com")

	assert.Equal(t, first.PlanTier, second.PlanTier)
	assert.Equal(t, first.EntitlementVersion, second.EntitlementVersion)
	assert.True(t, first.PlanExpiresAt.Equal(*second.PlanExpiresAt))
}

func TestDowngradeAfterUpgradeApplies(t *testing.T) {
	periodEnd := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	upgradeAt := time.Now().Unix()
	gateway := newFakeGateway()
	gateway.subscriptions["sub_1"] = &Subscription{
		ID: "sub_1", CustomerID: "cus_001", ProductID: "prod_pro",
		Status: "active", CurrentPeriodEnd: periodEnd,
	}
	store := newFakeAccountStore(&models.User{Email: "alice@example.com", BillingCustomerID: "cus_001"})
	engine := NewEntitlementEngine(store, gateway, billingConfig(true))

	require.NoError(t, engine.Upgrade(context.Background(), "cus_001", "sub_1", upgradeAt))
	require.Equal(t, string(entitlements.TierPro), store.get("alice@example.com").PlanTier)

	// A payment failure minutes into the period carries a later event
	// timestamp than the upgrade and must not be treated as stale.
	require.NoError(t, engine.Downgrade(context.Background(), "cus_001", upgradeAt+60))

	u := store.get("alice@example.com")
	assert.Equal(t, string(entitlements.TierFree), u.PlanTier)
	assert.Nil(t, u.PlanExpiresAt)
}

func TestUpgradeKeepsUnmappedProductID(t *testing.T) {
	periodEnd := time.Now().Add(24 * time.Hour)
	gateway := newFakeGateway()
	gateway.subscriptions["sub_1"] = &Subscription{
		ID: "sub_1", CustomerID: "cus_001", ProductID: "prod_mystery",
		Status: "active", CurrentPeriodEnd: periodEnd,
	}
	store := newFakeAccountStore(&models.User{Email: "alice@example.com", BillingCustomerID: "cus_001"})
	engine := NewEntitlementEngine(store, gateway, billingConfig(true))

	require.NoError(t, engine.Upgrade(context.Background(), "cus_001", "sub_1", time.Now().Unix()))
	assert.Equal(t, "prod_mystery", store.get("alice@example.com").PlanTier)
}

func TestUpgradeWithoutAccountIsSoftNoop(t *testing.T) {
	gateway := newFakeGateway()
	gateway.subscriptions["sub_1"] = &Subscription{
		ID: "sub_1", CustomerID: "cus_unknown", ProductID: "prod_pro",
		Status: "active", CurrentPeriodEnd: time.Now().Add(time.Hour),
	}
	engine := NewEntitlementEngine(newFakeAccountStore(), gateway, billingConfig(true))

	assert.NoError(t, engine.Upgrade(context.Background(), "cus_unknown", "sub_1", time.Now().Unix()))
}

func TestDowngradeAppliesFreeTierWhenEnabled(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	store := newFakeAccountStore(&models.User{
		Email:              "alice@example.com",
		BillingCustomerID:  "cus_001",
		PlanTier:           string(entitlements.TierPro),
		PlanExpiresAt:      &expiry,
		EntitlementVersion: 100,
	})
	engine := NewEntitlementEngine(store, newFakeGateway(), billingConfig(true))

	require.NoError(t, engine.Downgrade(context.Background(), "cus_001", 200))

	u := store.get("alice@example.com")
	assert.Equal(t, string(entitlements.TierFree), u.PlanTier)
	assert.Nil(t, u.PlanExpiresAt)
	assert.Equal(t, "cus_001", u.BillingCustomerID)
}

func TestDowngradeClearsTierWhenFreeTierDisabled(t *testing.T) {
	store := newFakeAccountStore(&models.User{
		Email:             "alice@example.com",
		BillingCustomerID: "cus_001",
		PlanTier:          string(entitlements.TierPro),
	})
	engine := NewEntitlementEngine(store, newFakeGateway(), billingConfig(false))

	require.NoError(t, engine.Downgrade(context.Background(), "cus_001", 200))
	assert.Empty(t, store.get("alice@example.com").PlanTier)
}

func TestDowngradeSkipsStaleEvent(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	store := newFakeAccountStore(&models.User{
		Email:              "alice@example.com",
		BillingCustomerID:  "cus_001",
		PlanTier:           string(entitlements.TierPro),
		PlanExpiresAt:      &expiry,
		EntitlementVersion: 500,
	})
	engine := NewEntitlementEngine(store, newFakeGateway(), billingConfig(true))

	// An event older than the last applied transition changes nothing.
	require.NoError(t, engine.Downgrade(context.Background(), "cus_001", 400))

	u := store.get("alice@example.com")
	assert.Equal(t, string(entitlements.TierPro), u.PlanTier)
	assert.Equal(t, int64(500), u.EntitlementVersion)
}

func TestUnlinkClearsCustomerLinkage(t *testing.T) {
	store := newFakeAccountStore(&models.User{
		Email:             "alice@example.com",
		BillingCustomerID: "cus_001",
		PlanTier:          string(entitlements.TierPro),
	})
	engine := NewEntitlementEngine(store, newFakeGateway(), billingConfig(true))

	require.NoError(t, engine.Unlink(context.Background(), "cus_001", 200))

	u := store.get("alice@example.com")
	assert.Empty(t, u.BillingCustomerID)
	assert.Equal(t, string(entitlements.TierFree), u.PlanTier)
}
