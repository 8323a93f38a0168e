// Package common contains shared constants and sentinel errors used across
// AuthBridge components.
package common

// Header names carried on every authorized request. The remote side keys
// authorization on the combination of all three.
const (
	// AuthorizationHeaderName carries the bearer token as "Bearer <token>".
	AuthorizationHeaderName = "Authorization"

	// SyncIDHeaderName carries the session sync id derived during login.
	SyncIDHeaderName = "X-Sync-Id"

	// UserIDHeaderName carries the authenticated user id.
	UserIDHeaderName = "X-User-Id"
)

// BearerPrefix is prepended to the access token in the Authorization header.
const BearerPrefix = "Bearer "
