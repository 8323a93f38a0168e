// Package api implements the JSON-over-HTTP client for the remote
// authorization service. It knows wire shapes and transport errors only;
// handshake state and credential handling live in the session package.
package api

import (
	"context"
	"time"
)

// LoginRequest starts a handshake. Only the fingerprint, the nonce used to
// derive it, and the connection name cross the wire; the raw identity values
// never do.
type LoginRequest struct {
	DateNonce      string `json:"date_nonce"`
	ConnectionName string `json:"connection_name"`
	RequestHash    string `json:"request_hash"`
}

// LoginResponse correlates the handshake and tells the human where to go.
type LoginResponse struct {
	RequestID   string    `json:"request_id"`
	ApprovalURL string    `json:"approval_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CheckRequest polls one pending handshake.
type CheckRequest struct {
	RequestID string `json:"request_id"`
}

// CheckResponse reports approval state. EncryptedAuthToken is only present
// once Approved is true; it is the one-time code sealed under the request
// key (nonce‖ciphertext‖tag, base64 on the wire).
type CheckResponse struct {
	Approved           bool   `json:"approved"`
	EncryptedAuthToken []byte `json:"encrypted_auth_token,omitempty"`
}

// AuthenticateRequest exchanges a sync id for bearer material.
type AuthenticateRequest struct {
	SyncID string `json:"sync_id"`
}

// AuthenticateResponse carries the bearer token and its lifetime in seconds.
type AuthenticateResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      string `json:"user_id"`
}

// Client is the wire-level surface consumed by the session manager.
//
// All methods honor context cancellation. Transport failures map to
// common.ErrServerUnavailable; non-2xx responses surface as *ServerError so
// the remote diagnostic message is preserved.
type Client interface {
	BeginLogin(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	CheckApproval(ctx context.Context, requestID string) (*CheckResponse, error)
	Authenticate(ctx context.Context, syncID string) (*AuthenticateResponse, error)
	Logout(ctx context.Context, headers map[string]string) error
}
