package billing

import (
	"time"

	"github.com/mwellner/subhub/app/models"
)

// EntitlementPatch is the field assignment applied by a state-machine
// transition. Transitions always assign, never increment, which is what
// keeps them idempotent under duplicate delivery.
type EntitlementPatch struct {
	// Tier is the plan value to write; empty clears the column.
	Tier string
	// ExpiresAt is the entitlement expiry; nil clears the column. Tier and
	// ExpiresAt are always written together.
	ExpiresAt *time.Time
	// SetCustomerID re-asserts the billing linkage on upgrade.
	SetCustomerID string
	// ClearCustomerID severs the billing linkage on provider-side customer
	// deletion.
	ClearCustomerID bool
	// Version is the monotonic logical clock of the event that produced this
	// patch; the update only applies when the stored version is not newer.
	Version int64
}

// AccountStore is the persistence port consumed by the reconciliation core.
type AccountStore interface {
	FindAccountByEmail(email string) (*models.User, error)
	FindAccountByBillingCustomerID(customerID string) (*models.User, error)
	CreateAccount(u *models.User) error

	// ClaimBillingCustomerID writes customerID onto the account only if no
	// id is stored yet. claimed is false when a concurrent writer won; the
	// winning id is returned either way.
	ClaimBillingCustomerID(email, customerID string) (claimed bool, winner string, err error)

	// FindAndUpdateByBillingCustomerID applies a conditional single-row
	// update filtered by customer id and entitlement version. user is nil
	// when no account carries the id; applied is false when the stored
	// version is newer than patch.Version (stale delivery).
	FindAndUpdateByBillingCustomerID(customerID string, patch EntitlementPatch) (user *models.User, applied bool, err error)
}

// EventStore persists webhook deliveries for idempotent processing.
type EventStore interface {
	CreateWebhookEventIfNotExists(ev *models.BillingWebhookEvent) (created bool, stored *models.BillingWebhookEvent, err error)
	MarkWebhookProcessed(id uint, processingError string) error
}
