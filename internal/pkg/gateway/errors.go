package gateway

import "errors"

var (
	// ErrAuthenticationFailed means the callback digest did not match; nothing
	// was persisted.
	ErrAuthenticationFailed = errors.New("callback digest verification failed")

	// ErrMissingConfig means the merchant key/salt are not configured. Fatal
	// at startup, never retried per request.
	ErrMissingConfig = errors.New("gateway merchant key/salt are not configured")

	// ErrMalformedPayload means the callback carries a value the commit path
	// cannot proceed with, like a non-numeric amount or a success without its
	// order detail.
	ErrMalformedPayload = errors.New("malformed callback payload")

	// ErrIdentityMissing means the decoded payloads carry no usable user
	// identity, which the verify path treats as a hard failure.
	ErrIdentityMissing = errors.New("callback payload carries no user identity")

	// ErrWaiverNotAllowed means the skip-payment path was invoked for an email
	// domain outside the server-side allow-list.
	ErrWaiverNotAllowed = errors.New("email domain is not on the payment waiver allow-list")

	// ErrOrderPlacement wraps a downstream order placement failure. The
	// transaction row persists and is marked orphaned.
	ErrOrderPlacement = errors.New("order placement failed")
)
