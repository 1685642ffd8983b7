package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mwellner/subhub/app/models"
)

// fakeGateway is the in-memory Gateway implementation used across the
// package tests.
type fakeGateway struct {
	mu            sync.Mutex
	customers     map[string]*Customer
	subscriptions map[string]*Subscription
	products      []Product
	nextCustomer  int
	calls         []string

	failCreateCustomer  bool
	failGetSubscription bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		customers:     map[string]*Customer{},
		subscriptions: map[string]*Subscription{},
	}
}

func (g *fakeGateway) record(call string) {
	g.calls = append(g.calls, call)
}

func (g *fakeGateway) RetrieveCustomer(_ context.Context, id string) (*Customer, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("RetrieveCustomer")
	c, ok := g.customers[id]
	return c, ok, nil
}

func (g *fakeGateway) CreateCustomer(_ context.Context, email, name string) (*Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CreateCustomer")
	if g.failCreateCustomer {
		return nil, fmt.Errorf("provider unavailable")
	}
	g.nextCustomer++
	c := &Customer{ID: fmt.Sprintf("cus_%03d", g.nextCustomer), Email: email, Name: name}
	g.customers[c.ID] = c
	return c, nil
}

func (g *fakeGateway) GetSubscription(_ context.Context, id string) (*Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("GetSubscription")
	if g.failGetSubscription {
		return nil, fmt.Errorf("provider unavailable")
	}
	sub, ok := g.subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("no such subscription %s", id)
	}
	return sub, nil
}

func (g *fakeGateway) NewCheckoutSession(_ context.Context, spec CheckoutSessionSpec) (*CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("NewCheckoutSession")
	return &CheckoutSession{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1?customer=" + spec.CustomerID}, nil
}

func (g *fakeGateway) NewPortalSession(_ context.Context, spec PortalSessionSpec) (*PortalSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("NewPortalSession")
	return &PortalSession{URL: "https://portal.example.com/" + spec.CustomerID}, nil
}

func (g *fakeGateway) ListProducts(_ context.Context) ([]Product, error) {
	g.record("ListProducts")
	return g.products, nil
}

// fakeAccountStore mirrors the conditional-update semantics of the GORM
// repository in memory, keyed by email.
type fakeAccountStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeAccountStore(users ...*models.User) *fakeAccountStore {
	s := &fakeAccountStore{users: map[string]*models.User{}}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *fakeAccountStore) FindAccountByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *fakeAccountStore) FindAccountByBillingCustomerID(customerID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.BillingCustomerID == customerID && customerID != "" {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeAccountStore) CreateAccount(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.Email]; exists {
		return gorm.ErrDuplicatedKey
	}
	s.users[u.Email] = u
	return nil
}

func (s *fakeAccountStore) ClaimBillingCustomerID(email, customerID string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return false, "", gorm.ErrRecordNotFound
	}
	if u.BillingCustomerID != "" {
		return false, u.BillingCustomerID, nil
	}
	u.BillingCustomerID = customerID
	return true, customerID, nil
}

func (s *fakeAccountStore) FindAndUpdateByBillingCustomerID(customerID string, patch EntitlementPatch) (*models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.BillingCustomerID != customerID || customerID == "" {
			continue
		}
		if u.EntitlementVersion > patch.Version {
			clone := *u
			return &clone, false, nil
		}
		u.PlanTier = patch.Tier
		u.PlanExpiresAt = patch.ExpiresAt
		u.EntitlementVersion = patch.Version
		if patch.SetCustomerID != "" {
			u.BillingCustomerID = patch.SetCustomerID
		}
		if patch.ClearCustomerID {
			u.BillingCustomerID = ""
		}
		clone := *u
		return &clone, true, nil
	}
	return nil, false, nil
}

func (s *fakeAccountStore) get(email string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[email]
}

type fakeEventStore struct {
	mu     sync.Mutex
	nextID uint
	events map[string]*models.BillingWebhookEvent
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[string]*models.BillingWebhookEvent{}}
}

func (s *fakeEventStore) CreateWebhookEventIfNotExists(ev *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.events[ev.ProviderEventID]; ok {
		return false, stored, nil
	}
	s.nextID++
	ev.ID = s.nextID
	s.events[ev.ProviderEventID] = ev
	return true, ev, nil
}

func (s *fakeEventStore) MarkWebhookProcessed(id uint, processingError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, ev := range s.events {
		if ev.ID == id {
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
		}
	}
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	succeeded []string
	failed    []string
}

func (n *fakeNotifier) PaymentSucceeded(email, invoiceURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.succeeded = append(n.succeeded, email+"|"+invoiceURL)
	return nil
}

func (n *fakeNotifier) PaymentFailed(email string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, email)
	return nil
}
