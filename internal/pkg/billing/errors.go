package billing

import "errors"

var (
	// ErrInvalidSignature rejects webhook deliveries whose signature header
	// is absent, malformed or does not match the payload.
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")

	// ErrValidation rejects requests with missing required fields before any
	// provider call is made.
	ErrValidation = errors.New("billing: validation failed")

	// ErrAccountNotFound marks reconciliation lookups that found no local
	// account. Callers treat it as a non-fatal no-op.
	ErrAccountNotFound = errors.New("billing: account not found")
)
