package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mwellner/subhub/app/models"
	"github.com/mwellner/subhub/internal/pkg/billing"
)

// billingAccountRepository implements billing.AccountStore on GORM.
type billingAccountRepository struct {
	db *gorm.DB
}

// NewBillingAccountRepository creates the account store consumed by the
// billing engine.
func NewBillingAccountRepository(db *gorm.DB) billing.AccountStore {
	return &billingAccountRepository{db: db}
}

func (r *billingAccountRepository) FindAccountByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *billingAccountRepository) FindAccountByBillingCustomerID(customerID string) (*models.User, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	err := r.db.Where("billing_customer_id = ?", customerID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *billingAccountRepository) CreateAccount(u *models.User) error {
	return r.db.Create(u).Error
}

// ClaimBillingCustomerID links customerID to the account iff no id is stored
// yet. The write-if-unset condition makes concurrent claims race-free: the
// first writer wins and every caller gets the winning id back.
func (r *billingAccountRepository) ClaimBillingCustomerID(email, customerID string) (bool, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res := r.db.Model(&models.User{}).
		Where("email = ? AND (billing_customer_id IS NULL OR billing_customer_id = '')", email).
		Update("billing_customer_id", customerID)
	if res.Error != nil {
		return false, "", res.Error
	}
	if res.RowsAffected > 0 {
		return true, customerID, nil
	}

	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return false, "", err
	}
	return false, user.BillingCustomerID, nil
}

// FindAndUpdateByBillingCustomerID applies an entitlement patch as a single
// conditional update guarded by the stored entitlement version. It returns
// (nil, false, nil) when no account is linked to customerID and
// (user, false, nil) when the stored state is newer than the patch.
func (r *billingAccountRepository) FindAndUpdateByBillingCustomerID(customerID string, patch billing.EntitlementPatch) (*models.User, bool, error) {
	var user models.User
	err := r.db.Where("billing_customer_id = ?", customerID).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	updates := map[string]interface{}{
		"plan_tier":           patch.Tier,
		"plan_expires_at":     patch.ExpiresAt,
		"entitlement_version": patch.Version,
	}
	if patch.SetCustomerID != "" {
		updates["billing_customer_id"] = patch.SetCustomerID
	}
	if patch.ClearCustomerID {
		updates["billing_customer_id"] = nil
	}

	res := r.db.Model(&models.User{}).
		Where("id = ? AND entitlement_version <= ?", user.ID, patch.Version).
		Updates(updates)
	if res.Error != nil {
		return &user, false, res.Error
	}
	if res.RowsAffected == 0 {
		return &user, false, nil
	}

	if err := r.db.First(&user, user.ID).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// billingEventRepository implements billing.EventStore on GORM.
type billingEventRepository struct {
	db *gorm.DB
}

// NewBillingEventRepository creates the webhook event store.
func NewBillingEventRepository(db *gorm.DB) billing.EventStore {
	return &billingEventRepository{db: db}
}

// CreateWebhookEventIfNotExists inserts the event unless the same provider
// event id was already recorded. The unique index on (provider,
// provider_event_id) makes this the dedup point for redeliveries.
func (r *billingEventRepository) CreateWebhookEventIfNotExists(ev *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(ev)
	if res.Error != nil {
		return false, nil, res.Error
	}
	if res.RowsAffected > 0 {
		return true, ev, nil
	}

	var existing models.BillingWebhookEvent
	err := r.db.Where("provider = ? AND provider_event_id = ?", ev.Provider, ev.ProviderEventID).
		First(&existing).Error
	if err != nil {
		return false, nil, err
	}
	return false, &existing, nil
}

func (r *billingEventRepository) MarkWebhookProcessed(id uint, processingError string) error {
	return r.db.Model(&models.BillingWebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_at":     time.Now(),
			"processing_error": processingError,
		}).Error
}
