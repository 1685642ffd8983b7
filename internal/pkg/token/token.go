package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mwellner/subhub/internal/pkg/config"
)

// Purpose scopes single-use action tokens so a password-reset token can never
// confirm an email address and vice versa.
type Purpose string

const (
	PurposeSession      Purpose = "session"
	PurposeResetPass    Purpose = "reset-password"
	PurposeConfirmEmail Purpose = "confirm-email"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload for both session and action tokens.
type Claims struct {
	UserID            uint    `json:"uid"`
	Email             string  `json:"email"`
	BillingCustomerID string  `json:"bcid,omitempty"`
	Purpose           Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with the configured HMAC secret.
type Manager struct {
	cfg config.JWT
}

func NewManager(cfg config.JWT) *Manager {
	return &Manager{cfg: cfg}
}

// IssueSession creates a login token carrying the account's billing identity
// so billing endpoints can skip a database round trip.
func (m *Manager) IssueSession(userID uint, email, billingCustomerID string) (string, error) {
	return m.issue(&Claims{
		UserID:            userID,
		Email:             email,
		BillingCustomerID: billingCustomerID,
		Purpose:           PurposeSession,
	}, m.cfg.TokenTTL)
}

// IssueAction creates a short-lived single-purpose token.
func (m *Manager) IssueAction(userID uint, email string, purpose Purpose) (string, error) {
	return m.issue(&Claims{
		UserID:  userID,
		Email:   email,
		Purpose: purpose,
	}, m.cfg.ActionTokenTTL)
}

func (m *Manager) issue(claims *Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and checks it was issued for purpose.
func (m *Manager) Verify(tokenString string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(m.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
