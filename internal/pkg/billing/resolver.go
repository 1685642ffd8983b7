package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// CustomerResolver maps an internal account to its external billing customer
// id, creating one lazily on first use.
type CustomerResolver struct {
	accounts AccountStore
	gateway  Gateway
}

func NewCustomerResolver(accounts AccountStore, gateway Gateway) *CustomerResolver {
	return &CustomerResolver{accounts: accounts, gateway: gateway}
}

// ResolveOrCreateCustomer returns the account's billing customer id. The id
// cached in the caller's token is tried first, then the stored one, and only
// then is a customer created remotely. The new id is persisted with a
// conditional write-if-unset update: if a concurrent request created a
// customer for the same account first, the stored id wins and the freshly
// created remote customer is abandoned, so exactly one id ever sticks.
func (r *CustomerResolver) ResolveOrCreateCustomer(ctx context.Context, identity AccountIdentity) (string, error) {
	if identity.Email == "" {
		return "", fmt.Errorf("%w: identity carries no email", ErrValidation)
	}

	if identity.CustomerID != "" {
		if _, ok, err := r.gateway.RetrieveCustomer(ctx, identity.CustomerID); err != nil {
			return "", err
		} else if ok {
			return identity.CustomerID, nil
		}
	}

	account, err := r.accounts.FindAccountByEmail(identity.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %s", ErrAccountNotFound, identity.Email)
		}
		return "", err
	}

	// The stored id may be fresher than the token's.
	if account.BillingCustomerID != "" && account.BillingCustomerID != identity.CustomerID {
		if _, ok, err := r.gateway.RetrieveCustomer(ctx, account.BillingCustomerID); err != nil {
			return "", err
		} else if ok {
			return account.BillingCustomerID, nil
		}
	}

	name := identity.Name
	if name == "" {
		name = account.Name
	}
	created, err := r.gateway.CreateCustomer(ctx, account.Email, name)
	if err != nil {
		return "", err
	}

	claimed, winner, err := r.accounts.ClaimBillingCustomerID(account.Email, created.ID)
	if err != nil {
		return "", err
	}
	if !claimed {
		log.Warnf("billing: lost customer-creation race for %s, using %s and abandoning %s",
			account.Email, winner, created.ID)
	}
	return winner, nil
}
