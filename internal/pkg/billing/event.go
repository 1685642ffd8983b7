package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event is a verified webhook delivery. Raw keeps the exact wire bytes so
// payload extraction never works on a re-serialized form.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Raw     []byte
}

// ParseEvent decodes the webhook envelope. Verification must already have
// happened on the same byte slice.
func ParseEvent(raw []byte) (*Event, error) {
	var envelope struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Created int64  `json:"created"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: parse webhook envelope: %v", ErrValidation, err)
	}
	if envelope.ID == "" || envelope.Type == "" {
		return nil, fmt.Errorf("%w: webhook envelope missing id or type", ErrValidation)
	}
	return &Event{
		ID:      envelope.ID,
		Type:    envelope.Type,
		Created: time.Unix(envelope.Created, 0),
		Raw:     raw,
	}, nil
}

// object unmarshals the event's data.object into out.
func (e *Event) object(out any) error {
	var envelope struct {
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(e.Raw, &envelope); err != nil {
		return fmt.Errorf("parse event data: %w", err)
	}
	if len(envelope.Data.Object) == 0 {
		return errors.New("event carries no data object")
	}
	if err := json.Unmarshal(envelope.Data.Object, out); err != nil {
		return fmt.Errorf("parse event object: %w", err)
	}
	return nil
}

// checkoutCompletedPayload is the slice of a checkout session object the
// upgrade transition needs. Customer and subscription arrive as plain ids on
// the webhook wire format.
type checkoutCompletedPayload struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

type invoicePayload struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
}

type subscriptionPayload struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

type customerPayload struct {
	ID string `json:"id"`
}
