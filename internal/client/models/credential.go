// Package models defines client-side data models used by the AuthBridge CLI.
package models

import "time"

// Credential is the durable record of an authenticated session.
//
// A credential is all-or-nothing: a partially populated record is never
// persisted, and a load that yields one is treated as no session at all.
type Credential struct {
	// UserID is the authenticated account identifier.
	UserID string `json:"user_id"`

	// BearerToken is the short-lived opaque access token.
	BearerToken string `json:"bearer_token"`

	// BearerExpiry is the absolute instant the bearer token stops working.
	BearerExpiry time.Time `json:"bearer_expiry"`

	// SyncID binds server-side session state to the handshake that produced
	// this credential. It is a one-way hash, safe to persist and transmit.
	SyncID string `json:"sync_id"`

	// RequestID and OneTimeCode together form the renewal material used to
	// re-mint a bearer token without a new human approval.
	RequestID   string `json:"request_id"`
	OneTimeCode string `json:"one_time_code"`
}

// Complete reports whether every field of an authenticated session is
// present. Load paths drop incomplete records instead of surfacing them.
func (c *Credential) Complete() bool {
	if c == nil {
		return false
	}
	return c.UserID != "" &&
		c.BearerToken != "" &&
		!c.BearerExpiry.IsZero() &&
		c.SyncID != "" &&
		c.RequestID != "" &&
		c.OneTimeCode != ""
}

// Clone returns a copy so callers can hand out snapshots without exposing
// shared mutable state.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
