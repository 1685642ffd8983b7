package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwellner/subhub/internal/pkg/config"
)

func testManager() *Manager {
	return NewManager(config.JWT{
		Secret:         "test-secret",
		TokenTTL:       8 * time.Hour,
		ActionTokenTTL: time.Hour,
	})
}

func TestSessionTokenRoundTrip(t *testing.T) {
	m := testManager()
	signed, err := m.IssueSession(42, "alice@example.com", "cus_001")
	require.NoError(t, err)

	claims, err := m.Verify(signed, PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "cus_001", claims.BillingCustomerID)
}

func TestActionTokenPurposeIsScoped(t *testing.T) {
	m := testManager()
	signed, err := m.IssueAction(42, "alice@example.com", PurposeResetPass)
	require.NoError(t, err)

	_, err = m.Verify(signed, PurposeResetPass)
	assert.NoError(t, err)

	_, err = m.Verify(signed, PurposeConfirmEmail)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify(signed, PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	signed, err := testManager().IssueSession(1, "alice@example.com", "")
	require.NoError(t, err)

	other := NewManager(config.JWT{Secret: "other-secret", TokenTTL: time.Hour, ActionTokenTTL: time.Hour})
	_, err = other.Verify(signed, PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager(config.JWT{Secret: "test-secret", TokenTTL: -time.Minute, ActionTokenTTL: -time.Minute})
	signed, err := m.IssueSession(1, "alice@example.com", "")
	require.NoError(t, err)

	_, err = m.Verify(signed, PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := testManager().Verify("not.a.token", PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
