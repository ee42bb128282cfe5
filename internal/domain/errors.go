package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// Auth-state errors. Safe to surface verbatim — the caller can act on them.
	ErrNotVerified  = errors.New("not verified")
	ErrCodeMismatch = errors.New("code mismatch")
	ErrCodeExpired  = errors.New("code expired")

	// Upstream errors. Logged with detail, surfaced generically.
	ErrDelivery = errors.New("delivery failed")
	ErrUpstream = errors.New("upstream failure")
)
