package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

// User is an account. Email is the identity key. The billing fields
// (BillingCustomerID, PlanTier, PlanExpiresAt) are written exclusively by the
// billing reconciliation engine; PlanTier and PlanExpiresAt are always set
// and cleared together. EntitlementVersion is a monotonic logical clock
// (subscription period end or provider event timestamp) that rejects stale
// webhook deliveries.
type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Email            string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password         string     `gorm:"type:text" json:"-"`
	Role             string     `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status           string     `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	AvatarURL        string     `gorm:"type:varchar(255);default:null" json:"avatar_url" validate:"max=255"`
	AuthProvider     string     `gorm:"type:varchar(50);default:''" json:"-"`
	EmailConfirmedAt *time.Time `gorm:"type:timestamp;default:null" json:"-"`

	BillingCustomerID  string     `gorm:"type:varchar(191);default:null;index" json:"-"`
	PlanTier           string     `gorm:"type:varchar(191);default:null" json:"plan_tier"`
	PlanExpiresAt      *time.Time `gorm:"type:timestamp;default:null" json:"plan_expires_at,omitempty"`
	EntitlementVersion int64      `gorm:"not null;default:0" json:"-"`

	LastLoginAt *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// CreateUser builds a password-backed account. The caller persists it.
func CreateUser(name string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:     name,
		Email:    email,
		Password: pw,
		Role:     ROLE_USER,
		Status:   STATUS_ACTIVE,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// HasBillingIdentity reports whether the account is linked to a billing customer.
func (u *User) HasBillingIdentity() bool {
	return u.BillingCustomerID != ""
}

// RandomToken returns a random hex token for one-shot flows (OAuth password
// placeholders and the like).
func RandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
