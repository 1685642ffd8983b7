package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCheckoutSessionSpec(t *testing.T) {
	spec, err := BuildCheckoutSessionSpec("cus_1", "price_1", "https://x/success", "https://x/cancel")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", spec.CustomerID)
	assert.Equal(t, "price_1", spec.PriceID)
}

func TestBuildCheckoutSessionSpecRejectsMissingInputs(t *testing.T) {
	_, err := BuildCheckoutSessionSpec("cus_1", "", "https://x/success", "https://x/cancel")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = BuildCheckoutSessionSpec("cus_1", "price_1", "", "https://x/cancel")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = BuildCheckoutSessionSpec("cus_1", "price_1", "https://x/success", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBuildPortalSessionSpec(t *testing.T) {
	spec, err := BuildPortalSessionSpec("cus_1", "https://x/account")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", spec.CustomerID)

	_, err = BuildPortalSessionSpec("", "https://x/account")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = BuildPortalSessionSpec("cus_1", "")
	assert.ErrorIs(t, err, ErrValidation)
}
