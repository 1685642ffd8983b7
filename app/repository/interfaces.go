package repository

import (
	"gorm.io/gorm"

	"github.com/mwellner/subhub/app/models"
	"github.com/mwellner/subhub/internal/pkg/billing"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByBillingCustomerID(customerID string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)
}

// Repositories bundles all repository instances. BillingAccounts and
// BillingEvents are the persistence ports consumed by the billing engine.
type Repositories struct {
	User            UserRepository
	BillingAccounts billing.AccountStore
	BillingEvents   billing.EventStore
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		BillingAccounts: NewBillingAccountRepository(db),
		BillingEvents:   NewBillingEventRepository(db),
	}
}
