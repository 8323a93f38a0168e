// Package session implements the session-authentication subsystem of the
// AuthBridge client: the multi-step human-in-the-loop handshake with the
// authorization service, verification of the server-issued approval token,
// and lifecycle management of the resulting credential (caching, expiry,
// refresh, revocation).
package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/client/api"
	"github.com/dmitrijs2005/authbridge/internal/client/models"
	"github.com/dmitrijs2005/authbridge/internal/client/store"
	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/cryptox"
	"github.com/dmitrijs2005/authbridge/internal/logging"
)

// timeNow is a test seam for time.Now.
// In tests you can replace it with a stub to control expiry arithmetic.
var timeNow = time.Now

// Default handshake and refresh parameters. The poll budget models an
// unbounded human action behind a fixed client-side timeout: 60 polls at 5s
// give the human about five minutes to approve.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollAttempts = 60
	DefaultRefreshSkew  = 5 * time.Minute
)

// LoginInfo is returned from Login so the host can send the human to the
// approval page.
type LoginInfo struct {
	RequestID   string
	ApprovalURL string
	ExpiresAt   time.Time
}

// pendingHandshake is the ephemeral state of one login attempt. It is
// created at initiation, consumed at CompleteLogin, and never persisted.
type pendingHandshake struct {
	requestID  string
	requestKey []byte
}

// Options tune the handshake and refresh behavior. Zero values fall back to
// the defaults above.
type Options struct {
	ConnectionName string
	PollInterval   time.Duration
	PollAttempts   int
	RefreshSkew    time.Duration
}

// Manager owns the in-memory credential and drives the handshake against
// the authorization service.
//
// A Manager is safe for concurrent use: the mutex serializes every
// read-modify-write of the credential so two callers hitting the refresh
// window at the same time cannot race to re-exchange and persist.
type Manager struct {
	mu      sync.Mutex
	client  api.Client
	store   store.Store
	logger  logging.Logger
	opts    Options
	cred    *models.Credential
	pending *pendingHandshake
}

// NewManager binds a manager to a wire client and a credential store.
func NewManager(client api.Client, st store.Store, logger logging.Logger, opts Options) *Manager {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = DefaultPollAttempts
	}
	if opts.RefreshSkew <= 0 {
		opts.RefreshSkew = DefaultRefreshSkew
	}
	return &Manager{client: client, store: st, logger: logger, opts: opts}
}

// Restore loads the last persisted credential, if any. Missing or corrupt
// state degrades to "no prior session" and is never fatal.
func (m *Manager) Restore(ctx context.Context) {
	cred, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn(ctx, "stored session not usable, starting without one", "error", err.Error())
		return
	}
	if cred == nil {
		return
	}

	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()
}

// Login starts a new handshake for the given account identity.
//
// Only a fingerprint of the identity, the nonce it was computed with, and
// the connection name are transmitted; the username and email stay local,
// where they also seed the request key. A second Login before CompleteLogin
// abandons the previous attempt.
func (m *Manager) Login(ctx context.Context, username, email string) (*LoginInfo, error) {
	nonce := strconv.FormatInt(timeNow().UnixMilli(), 10)
	fingerprint := cryptox.RequestFingerprint(username, email, nonce, m.opts.ConnectionName)

	resp, err := m.client.BeginLogin(ctx, &api.LoginRequest{
		DateNonce:      nonce,
		ConnectionName: m.opts.ConnectionName,
		RequestHash:    fingerprint,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInitiationFailed, err)
	}

	key := cryptox.DeriveRequestKey(username, email, m.opts.ConnectionName, nonce)

	m.mu.Lock()
	if m.pending != nil {
		common.WipeByteArray(m.pending.requestKey)
	}
	m.pending = &pendingHandshake{requestID: resp.RequestID, requestKey: key}
	m.mu.Unlock()

	m.logger.Info(ctx, "handshake started", "request_id", resp.RequestID)

	return &LoginInfo{
		RequestID:   resp.RequestID,
		ApprovalURL: resp.ApprovalURL,
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

// CompleteLogin finishes the handshake started by Login.
//
// It waits for the human approval to land on the server, decrypts the
// server-supplied code with the locally derived request key, and requires
// it to match the code the human read off the approval page byte for byte.
// Both channels must agree before any credential is minted: an attacker
// controlling only the network leg or only the approval page cannot pass.
// On success the credential is cached and persisted; persistence failure is
// logged and the in-memory credential stays usable.
func (m *Manager) CompleteLogin(ctx context.Context, requestID, oneTimeCode string) error {
	m.mu.Lock()
	pending := m.pending
	m.mu.Unlock()

	if pending == nil || pending.requestID != requestID {
		return fmt.Errorf("no pending handshake for request %q", requestID)
	}

	blob, err := m.awaitApproval(ctx, requestID)
	if err != nil {
		return err
	}

	decrypted, err := cryptox.Open(pending.requestKey, blob)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrVerificationFailed, err)
	}
	defer common.WipeByteArray(decrypted)

	if subtle.ConstantTimeCompare(decrypted, []byte(oneTimeCode)) == 0 {
		return fmt.Errorf("%w: server and human-provided codes disagree", common.ErrVerificationFailed)
	}

	syncID := cryptox.SyncID(requestID, oneTimeCode)

	resp, err := m.client.Authenticate(ctx, syncID)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrExchangeFailed, err)
	}

	cred := &models.Credential{
		UserID:       resp.UserID,
		BearerToken:  resp.AccessToken,
		BearerExpiry: timeNow().Add(time.Duration(resp.ExpiresIn) * time.Second),
		SyncID:       syncID,
		RequestID:    requestID,
		OneTimeCode:  oneTimeCode,
	}

	m.mu.Lock()
	m.cred = cred
	common.WipeByteArray(pending.requestKey)
	m.pending = nil
	m.persistLocked(ctx)
	m.mu.Unlock()

	m.logger.Info(ctx, "login completed", "user_id", cred.UserID)
	return nil
}

// awaitApproval polls the status endpoint until the server reports approval
// or the attempt budget runs out. Transient poll failures are swallowed and
// retried; only exhausting the budget (or caller cancellation) is terminal.
// Polling stops on the first approved response.
func (m *Manager) awaitApproval(ctx context.Context, requestID string) ([]byte, error) {
	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= m.opts.PollAttempts; attempt++ {
		resp, err := m.client.CheckApproval(ctx, requestID)
		switch {
		case err != nil:
			m.logger.Debug(ctx, "approval poll failed, retrying", "attempt", attempt, "error", err.Error())
		case resp.Approved:
			return resp.EncryptedAuthToken, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("approval wait canceled: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: no approval after %d polls", common.ErrApprovalTimeout, m.opts.PollAttempts)
}

// UserID returns the cached account identifier. It is a pure read: no
// network activity, no refresh, and it keeps answering from a stale
// credential after a failed refresh.
func (m *Manager) UserID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred == nil {
		return "", common.ErrNotAuthenticated
	}
	return m.cred.UserID, nil
}

// AuthHeaders returns the header set required on every authorized call:
// bearer token, sync id, and user id. The remote side authorizes on the
// combination, not the token alone.
//
// When the bearer token is inside the refresh window the credential is
// re-exchanged first, which mutates both the in-memory and the persisted
// record.
func (m *Manager) AuthHeaders(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred == nil {
		return nil, common.ErrNotAuthenticated
	}

	if !timeNow().Before(m.cred.BearerExpiry.Add(-m.opts.RefreshSkew)) {
		if err := m.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}

	return m.headersLocked(), nil
}

// headersLocked assembles the header map from the current credential.
// Callers must hold m.mu and have checked m.cred is present.
func (m *Manager) headersLocked() map[string]string {
	return map[string]string{
		common.AuthorizationHeaderName: common.BearerPrefix + m.cred.BearerToken,
		common.SyncIDHeaderName:        m.cred.SyncID,
		common.UserIDHeaderName:        m.cred.UserID,
	}
}

// refreshLocked re-mints the bearer token from the retained renewal
// material, without a new human approval. A failed refresh leaves the stale
// credential in place: UserID keeps answering for in-flight work, but every
// authorized call will fail upstream until a fresh handshake succeeds.
// Callers must hold m.mu.
func (m *Manager) refreshLocked(ctx context.Context) error {
	syncID := cryptox.SyncID(m.cred.RequestID, m.cred.OneTimeCode)

	resp, err := m.client.Authenticate(ctx, syncID)
	if err != nil {
		m.logger.Warn(ctx, "credential refresh failed", "user_id", m.cred.UserID, "error", err.Error())
		return fmt.Errorf("%w: %w", common.ErrRefreshFailed, err)
	}

	m.cred.UserID = resp.UserID
	m.cred.BearerToken = resp.AccessToken
	m.cred.BearerExpiry = timeNow().Add(time.Duration(resp.ExpiresIn) * time.Second)
	m.cred.SyncID = syncID
	m.persistLocked(ctx)

	m.logger.Info(ctx, "credential refreshed", "user_id", m.cred.UserID)
	return nil
}

// Logout revokes the session on the server when one exists and clears the
// credential from memory and durable storage. It is idempotent: calling it
// without a session, or twice in a row, is not an error. Server or storage
// failures during revocation are logged and do not block the local clear.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred != nil {
		if err := m.client.Logout(ctx, m.headersLocked()); err != nil {
			m.logger.Warn(ctx, "server-side logout failed, clearing local session anyway", "error", err.Error())
		}
	}

	m.cred = nil
	if err := m.store.Erase(ctx); err != nil {
		m.logger.Warn(ctx, "failed to erase stored session", "error", err.Error())
	}
	return nil
}

// persistLocked saves the current credential best-effort. Persistence
// failure never fails the calling operation: the in-memory credential stays
// usable for the rest of the process lifetime. Callers must hold m.mu.
func (m *Manager) persistLocked(ctx context.Context) {
	if err := m.store.Save(ctx, m.cred); err != nil {
		m.logger.Warn(ctx, "failed to persist session, continuing with in-memory credential", "error", err.Error())
	}
}

// IsLoggedIn reports whether a credential is currently cached.
func (m *Manager) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred != nil
}
