// Package common defines shared constants and sentinel errors used across
// client and server layers of AuthBridge. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Handshake lifecycle errors.
	ErrInitiationFailed   = errors.New("handshake initiation failed")
	ErrApprovalTimeout    = errors.New("approval timed out")
	ErrVerificationFailed = errors.New("verification failed")
	ErrExchangeFailed     = errors.New("credential exchange failed")

	// Credential lifecycle errors.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrRefreshFailed    = errors.New("credential refresh failed")

	// Transport errors.
	ErrServerUnavailable = errors.New("server unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
