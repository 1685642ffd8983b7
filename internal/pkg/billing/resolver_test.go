package billing

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwellner/subhub/app/models"
)

func TestResolveReturnsTokenCustomerID(t *testing.T) {
	gateway := newFakeGateway()
	gateway.customers["cus_tok"] = &Customer{ID: "cus_tok", Email: "alice@example.com"}
	resolver := NewCustomerResolver(newFakeAccountStore(), gateway)

	id, err := resolver.ResolveOrCreateCustomer(context.Background(), AccountIdentity{
		Email: "alice@example.com", CustomerID: "cus_tok",
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_tok", id)
	// No lookup of the account and no customer creation happened.
	assert.Equal(t, []string{"RetrieveCustomer"}, gateway.calls)
}

func TestResolveFallsBackToStoredCustomerID(t *testing.T) {
	gateway := newFakeGateway()
	gateway.customers["cus_db"] = &Customer{ID: "cus_db", Email: "alice@example.com"}
	store := newFakeAccountStore(&models.User{Email: "alice@example.com", BillingCustomerID: "cus_db"})
	resolver := NewCustomerResolver(store, gateway)

	// The token carries a customer id that no longer exists remotely.
	id, err := resolver.ResolveOrCreateCustomer(context.Background(), AccountIdentity{
		Email: "alice@example.com", CustomerID: "cus_gone",
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_db", id)
}

func TestResolveCreatesCustomerOnFirstUse(t *testing.T) {
	gateway := newFakeGateway()
	store := newFakeAccountStore(&models.User{Email: "alice@example.com", Name: "Alice"})
	resolver := NewCustomerResolver(store, gateway)

	id, err := resolver.ResolveOrCreateCustomer(context.Background(), AccountIdentity{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "cus_001", id)
	assert.Equal(t, "cus_001", store.get("alice@example.com").BillingCustomerID)
	assert.Equal(t, "Alice", gateway.customers["cus_001"].Name)
}

func TestResolveUnknownAccount(t *testing.T) {
	resolver := NewCustomerResolver(newFakeAccountStore(), newFakeGateway())

	_, err := resolver.ResolveOrCreateCustomer(context.Background(), AccountIdentity{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestResolveRejectsEmptyIdentity(t *testing.T) {
	resolver := NewCustomerResolver(newFakeAccountStore(), newFakeGateway())

	_, err := resolver.ResolveOrCreateCustomer(context.Background(), AccountIdentity{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolveConcurrentCreationConvergesOnOneID(t *testing.T) {
	gateway := newFakeGateway()
	store := newFakeAccountStore(&models.User{Email: "alice@example.com", Name: "Alice"})
	resolver := NewCustomerResolver(store, gateway)

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = resolver.ResolveOrCreateCustomer(context.Background(), AccountIdentity{Email: "alice@example.com"})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	// Losers of the claim race converge on the winner's id.
	stored := store.get("alice@example.com").BillingCustomerID
	require.NotEmpty(t, stored)
	for _, id := range ids {
		assert.Equal(t, stored, id)
	}
}
