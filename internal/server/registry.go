// Package server implements a stand-in authorization service used for
// integration tests and local development. It keeps all handshake state in
// memory and speaks the same JSON wire contract the real service does.
package server

import (
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/cryptox"
	"github.com/google/uuid"
)

// Identity is one account the server knows how to approve. UserID is
// assigned at startup and returned from the token exchange.
type Identity struct {
	Username string
	Email    string
	UserID   string
}

// Registry errors.
var (
	ErrUnknownRequest  = errors.New("unknown request id")
	ErrRequestExpired  = errors.New("approval request expired")
	ErrUnknownIdentity = errors.New("request fingerprint matches no configured identity")
	ErrUnknownSession  = errors.New("unknown sync id")
)

// pendingRequest is one registered handshake waiting for approval.
type pendingRequest struct {
	id             string
	identity       Identity
	dateNonce      string
	connectionName string
	createdAt      time.Time
	expiresAt      time.Time
	approved       bool
	code           string
	sealedCode     []byte
}

// session is the binding created at approval time between a sync id and the
// approved account. The token exchange and logout both resolve through it.
type session struct {
	userID    string
	requestID string
}

// Registry holds every pending handshake and established session binding.
// All methods are safe for concurrent use.
type Registry struct {
	mu               sync.Mutex
	identities       []Identity
	approvalTTL      time.Duration
	autoApproveAfter time.Duration
	now              func() time.Time
	pending          map[string]*pendingRequest
	sessions         map[string]*session
}

// NewRegistry builds a registry over the configured identities. approvalTTL
// bounds how long a registered request stays answerable; autoApproveAfter,
// when positive, approves pending requests without an explicit approve call
// once that much time has passed (simulating the human).
func NewRegistry(identities []Identity, approvalTTL, autoApproveAfter time.Duration) *Registry {
	ids := make([]Identity, len(identities))
	copy(ids, identities)
	for i := range ids {
		if ids[i].UserID == "" {
			ids[i].UserID = uuid.NewString()
		}
	}
	return &Registry{
		identities:       ids,
		approvalTTL:      approvalTTL,
		autoApproveAfter: autoApproveAfter,
		now:              time.Now,
		pending:          make(map[string]*pendingRequest),
		sessions:         make(map[string]*session),
	}
}

// Identities returns a copy of the configured identities, user ids included.
func (r *Registry) Identities() []Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Identity, len(r.identities))
	copy(out, r.identities)
	return out
}

// Register matches the submitted fingerprint against the configured
// identities and registers a pending request for the matching account.
//
// The server never receives the raw identity values: it recomputes the
// fingerprint from what it knows about each account plus the transmitted
// nonce and connection name, exactly as the client did.
func (r *Registry) Register(dateNonce, connectionName, requestHash string) (string, time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.identities {
		if cryptox.RequestFingerprint(id.Username, id.Email, dateNonce, connectionName) != requestHash {
			continue
		}

		now := r.now()
		req := &pendingRequest{
			id:             uuid.NewString(),
			identity:       id,
			dateNonce:      dateNonce,
			connectionName: connectionName,
			createdAt:      now,
			expiresAt:      now.Add(r.approvalTTL),
		}
		r.pending[req.id] = req
		return req.id, req.expiresAt, nil
	}

	return "", time.Time{}, ErrUnknownIdentity
}

// Approve marks the request approved and returns the one-time code the
// human would read off the approval page. Approving an already-approved
// request returns the same code, the way a reloaded approval page would.
//
// The code is sealed under a request key the server derives independently
// from its identity knowledge and the nonce/connection name the client
// transmitted; the sealed form is what subsequent Check calls hand back.
// Approval also registers the sync-id binding consumed by Authenticate.
func (r *Registry) Approve(requestID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.pending[requestID]
	if !ok {
		return "", ErrUnknownRequest
	}
	if req.approved {
		return req.code, nil
	}
	if r.now().After(req.expiresAt) {
		delete(r.pending, requestID)
		return "", ErrRequestExpired
	}

	if err := r.approveLocked(req); err != nil {
		return "", err
	}
	return req.code, nil
}

func (r *Registry) approveLocked(req *pendingRequest) error {
	code, err := common.MakeRandHexString(4)
	if err != nil {
		return err
	}

	key := cryptox.DeriveRequestKey(req.identity.Username, req.identity.Email, req.connectionName, req.dateNonce)
	defer common.WipeByteArray(key)

	sealed, err := cryptox.Seal(key, []byte(code))
	if err != nil {
		return err
	}

	req.approved = true
	req.code = code
	req.sealedCode = sealed
	r.sessions[cryptox.SyncID(req.id, code)] = &session{
		userID:    req.identity.UserID,
		requestID: req.id,
	}
	return nil
}

// Check reports the approval state of a pending request. Once approved it
// returns the sealed one-time code. When auto-approval is configured and
// its delay has elapsed, Check performs the approval itself.
func (r *Registry) Check(requestID string) (bool, []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.pending[requestID]
	if !ok {
		return false, nil, ErrUnknownRequest
	}
	if !req.approved && r.now().After(req.expiresAt) {
		delete(r.pending, requestID)
		return false, nil, ErrRequestExpired
	}

	if !req.approved && r.autoApproveAfter > 0 && r.now().Sub(req.createdAt) >= r.autoApproveAfter {
		if err := r.approveLocked(req); err != nil {
			return false, nil, err
		}
	}

	if !req.approved {
		return false, nil, nil
	}
	return true, req.sealedCode, nil
}

// Authenticate resolves a sync id to the approved account. It stays valid
// for repeated exchanges: the client re-mints bearer tokens through the
// same binding without a new approval.
func (r *Registry) Authenticate(syncID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[syncID]
	if !ok {
		return "", ErrUnknownSession
	}
	return s.userID, nil
}

// Revoke removes the sync binding, ending the session. Subsequent
// Authenticate calls with the same sync id fail.
func (r *Registry) Revoke(syncID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[syncID]
	if !ok || s.userID != userID {
		return ErrUnknownSession
	}
	delete(r.sessions, syncID)
	delete(r.pending, s.requestID)
	return nil
}
