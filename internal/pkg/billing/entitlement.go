package billing

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/mwellner/subhub/internal/pkg/config"
	"github.com/mwellner/subhub/internal/pkg/entitlements"
)

// EntitlementEngine derives and persists an account's plan tier from
// provider-reported subscription data. Every transition is a single
// conditional field assignment keyed by billing customer id, which makes
// re-applying the same event a no-op, and the version guard makes applying
// an older event a no-op as well.
type EntitlementEngine struct {
	accounts AccountStore
	gateway  Gateway
	cfg      config.Billing
}

func NewEntitlementEngine(accounts AccountStore, gateway Gateway, cfg config.Billing) *EntitlementEngine {
	return &EntitlementEngine{accounts: accounts, gateway: gateway, cfg: cfg}
}

// Upgrade applies a completed checkout: the subscription named in the event
// is fetched, its product id mapped through the configured tier table, and
// tier + expiry + customer linkage written onto the matching account. An
// unmapped product id is stored as-is rather than failing, so catalog drift
// never blocks a paid checkout. version is the provider event timestamp, the
// same clock every transition carries.
func (e *EntitlementEngine) Upgrade(ctx context.Context, customerID, subscriptionID string, version int64) error {
	sub, err := e.gateway.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}

	tierValue := sub.ProductID
	if tier, ok := e.cfg.TierForProduct(sub.ProductID); ok {
		tierValue = string(tier)
	} else {
		log.Warnf("billing: no tier mapping for product %s, storing raw id", sub.ProductID)
	}

	expiry := sub.CurrentPeriodEnd
	user, applied, err := e.accounts.FindAndUpdateByBillingCustomerID(customerID, EntitlementPatch{
		Tier:          tierValue,
		ExpiresAt:     &expiry,
		SetCustomerID: customerID,
		Version:       version,
	})
	if err != nil {
		return err
	}
	if user == nil {
		log.Warnf("billing: no account for customer %s, upgrade skipped", customerID)
		return nil
	}
	if !applied {
		log.Infof("billing: stale upgrade for customer %s skipped", customerID)
		return nil
	}
	log.Infof("billing: account %d upgraded to %s until %s", user.ID, tierValue, expiry.UTC().Format("2006-01-02"))
	return nil
}

// Downgrade clears the entitlement, re-applying the free tier when enabled.
// version is the logical clock of the triggering event.
func (e *EntitlementEngine) Downgrade(ctx context.Context, customerID string, version int64) error {
	_ = ctx
	user, applied, err := e.accounts.FindAndUpdateByBillingCustomerID(customerID, e.downgradePatch(version))
	if err != nil {
		return err
	}
	if user == nil {
		log.Warnf("billing: no account for customer %s, downgrade skipped", customerID)
		return nil
	}
	if !applied {
		log.Infof("billing: stale downgrade for customer %s skipped", customerID)
		return nil
	}
	log.Infof("billing: account %d downgraded to %q", user.ID, user.PlanTier)
	return nil
}

// Unlink severs the billing linkage after provider-side customer deletion,
// on top of the downgrade policy. The account itself is never deleted.
func (e *EntitlementEngine) Unlink(ctx context.Context, customerID string, version int64) error {
	_ = ctx
	patch := e.downgradePatch(version)
	patch.ClearCustomerID = true
	user, applied, err := e.accounts.FindAndUpdateByBillingCustomerID(customerID, patch)
	if err != nil {
		return err
	}
	if user == nil {
		log.Warnf("billing: no account for customer %s, unlink skipped", customerID)
		return nil
	}
	if !applied {
		log.Infof("billing: stale unlink for customer %s skipped", customerID)
		return nil
	}
	log.Infof("billing: account %d unlinked from customer %s", user.ID, customerID)
	return nil
}

func (e *EntitlementEngine) downgradePatch(version int64) EntitlementPatch {
	patch := EntitlementPatch{Version: version}
	if e.cfg.FreeTierEnabled {
		patch.Tier = string(entitlements.TierFree)
	}
	return patch
}
