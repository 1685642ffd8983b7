package billing

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/mwellner/subhub/app/models"
	"github.com/mwellner/subhub/internal/pkg/config"
)

// Provider tag recorded on persisted webhook events.
const ProviderStripe = "stripe"

// Notifier is the notification collaborator consumed by the reconciliation
// core. Send failures are logged, never propagated: the provider must not
// retry a delivery because an email bounced.
type Notifier interface {
	PaymentSucceeded(email, invoiceURL string) error
	PaymentFailed(email string) error
}

// Archiver optionally persists raw verified payloads out-of-band for audit.
type Archiver interface {
	Store(ctx context.Context, key string, payload []byte) error
}

// Service is the billing-event reconciliation engine: it authenticates
// inbound webhook deliveries, deduplicates them, routes them to the right
// transition and builds outbound checkout/portal sessions.
type Service struct {
	cfg        config.Billing
	accounts   AccountStore
	events     EventStore
	gateway    Gateway
	notifier   Notifier
	archiver   Archiver
	resolver   *CustomerResolver
	engine     *EntitlementEngine
	dispatcher *Dispatcher
}

// NewService wires the reconciliation engine. archiver may be nil.
func NewService(cfg config.Billing, accounts AccountStore, events EventStore, gateway Gateway, notifier Notifier, archiver Archiver) *Service {
	s := &Service{
		cfg:      cfg,
		accounts: accounts,
		events:   events,
		gateway:  gateway,
		notifier: notifier,
		archiver: archiver,
		resolver: NewCustomerResolver(accounts, gateway),
		engine:   NewEntitlementEngine(accounts, gateway, cfg),
	}
	s.dispatcher = NewDispatcher(map[EventKind]HandlerFunc{
		EventCheckoutCompleted:   s.handleCheckoutCompleted,
		EventInvoiceSucceeded:    s.handleInvoiceSucceeded,
		EventInvoiceFailed:       s.handleInvoiceFailed,
		EventSubscriptionDeleted: s.handleSubscriptionDeleted,
		EventCustomerDeleted:     s.handleCustomerDeleted,
	})
	return s
}

// ProcessWebhook runs the full inbound pipeline: signature verification over
// the raw bytes (before anything is read or written), persisted event-id
// dedup, then dispatch. ErrInvalidSignature and ErrValidation mean the
// delivery must be rejected with 400 so the provider stops retrying it; any
// other error is a server-side failure the provider should retry.
func (s *Service) ProcessWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error {
	if err := VerifySignature(rawBody, signatureHeader, s.cfg.WebhookSecret); err != nil {
		return err
	}

	ev, err := ParseEvent(rawBody)
	if err != nil {
		return err
	}

	created, stored, err := s.events.CreateWebhookEventIfNotExists(&models.BillingWebhookEvent{
		Provider:        ProviderStripe,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		PayloadJSON:     string(rawBody),
	})
	if err != nil {
		return err
	}
	if !created {
		// Only a delivery whose previous attempt finished cleanly is a true
		// duplicate. A retry after a failed or interrupted dispatch must run
		// the handlers again or the transition is lost.
		if stored.ProcessedAt != nil && stored.ProcessingError == "" {
			log.Infof("billing: duplicate delivery of event %s ignored", ev.ID)
			return nil
		}
		log.Infof("billing: redelivery of event %s after failed attempt, reprocessing", ev.ID)
	}

	if created && s.archiver != nil {
		if err := s.archiver.Store(ctx, ev.ID, rawBody); err != nil {
			log.Warnf("billing: archiving event %s failed: %v", ev.ID, err)
		}
	}

	dispatchErr := s.dispatcher.Dispatch(ctx, ev)
	errMsg := ""
	if dispatchErr != nil {
		errMsg = dispatchErr.Error()
	}
	if err := s.events.MarkWebhookProcessed(stored.ID, errMsg); err != nil {
		log.Errorf("billing: marking event %s processed failed: %v", ev.ID, err)
	}
	return dispatchErr
}

// CreateCheckoutSession resolves the caller's billing customer and opens a
// provider-hosted checkout. Validation runs before any remote call.
func (s *Service) CreateCheckoutSession(ctx context.Context, identity AccountIdentity, priceID string) (*CheckoutSession, error) {
	// Validate before the resolver touches the provider.
	spec, err := BuildCheckoutSessionSpec("", priceID, s.cfg.CheckoutSuccessURL, s.cfg.CheckoutCancelURL)
	if err != nil {
		return nil, err
	}
	spec.CustomerID, err = s.resolver.ResolveOrCreateCustomer(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.gateway.NewCheckoutSession(ctx, spec)
}

// CreatePortalSession opens the provider-hosted billing portal for callers
// that already have a billing identity.
func (s *Service) CreatePortalSession(ctx context.Context, identity AccountIdentity) (*PortalSession, error) {
	customerID := identity.CustomerID
	if customerID == "" {
		// The token may predate the linkage; fall back to the stored id.
		if account, err := s.accounts.FindAccountByEmail(identity.Email); err == nil {
			customerID = account.BillingCustomerID
		}
	}
	spec, err := BuildPortalSessionSpec(customerID, s.cfg.PortalReturnURL)
	if err != nil {
		return nil, err
	}
	return s.gateway.NewPortalSession(ctx, spec)
}

// ListProducts passes the provider catalog through.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.gateway.ListProducts(ctx)
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, ev *Event) error {
	var payload checkoutCompletedPayload
	if err := ev.object(&payload); err != nil {
		return err
	}
	if payload.Subscription == "" {
		log.Warnf("billing: checkout %s completed without subscription, ignored", payload.ID)
		return nil
	}
	return s.engine.Upgrade(ctx, payload.Customer, payload.Subscription, ev.Created.Unix())
}

func (s *Service) handleInvoiceSucceeded(ctx context.Context, ev *Event) error {
	var payload invoicePayload
	if err := ev.object(&payload); err != nil {
		return err
	}
	user, err := s.accounts.FindAccountByBillingCustomerID(payload.Customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("billing: invoice %s paid for unknown customer %s", payload.ID, payload.Customer)
			return nil
		}
		return err
	}
	if err := s.notifier.PaymentSucceeded(user.Email, payload.HostedInvoiceURL); err != nil {
		log.Errorf("billing: payment-succeeded mail to %s failed: %v", user.Email, err)
	}
	return nil
}

func (s *Service) handleInvoiceFailed(ctx context.Context, ev *Event) error {
	var payload invoicePayload
	if err := ev.object(&payload); err != nil {
		return err
	}
	if err := s.engine.Downgrade(ctx, payload.Customer, ev.Created.Unix()); err != nil {
		return err
	}
	user, err := s.accounts.FindAccountByBillingCustomerID(payload.Customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if err := s.notifier.PaymentFailed(user.Email); err != nil {
		log.Errorf("billing: payment-failed mail to %s failed: %v", user.Email, err)
	}
	return nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, ev *Event) error {
	var payload subscriptionPayload
	if err := ev.object(&payload); err != nil {
		return err
	}
	return s.engine.Downgrade(ctx, payload.Customer, ev.Created.Unix())
}

func (s *Service) handleCustomerDeleted(ctx context.Context, ev *Event) error {
	var payload customerPayload
	if err := ev.object(&payload); err != nil {
		return err
	}
	return s.engine.Unlink(ctx, payload.ID, ev.Created.Unix())
}
