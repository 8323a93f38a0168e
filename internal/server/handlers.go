package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/client/api"
	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/auth"
	"github.com/gorilla/mux"
)

// Handler serves the /auth/* wire contract plus the /approve endpoint that
// stands in for the human approval page.
type Handler struct {
	registry      *Registry
	logger        logging.Logger
	secretKey     []byte
	tokenValidity time.Duration
}

// NewHandler wires the registry into an HTTP handler.
func NewHandler(registry *Registry, logger logging.Logger, secretKey []byte, tokenValidity time.Duration) *Handler {
	return &Handler{
		registry:      registry,
		logger:        logger,
		secretKey:     secretKey,
		tokenValidity: tokenValidity,
	}
}

// Router returns the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/check", h.check).Methods(http.MethodPost)
	r.HandleFunc("/auth/authenticate", h.authenticate).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.logout).Methods(http.MethodPost)
	r.HandleFunc("/approve", h.approve).Methods(http.MethodPost)
	return r
}

// approveRequest asks the server to approve a pending handshake, the way a
// logged-in human would on the real approval page.
type approveRequest struct {
	RequestID string `json:"request_id"`
}

// approveResponse returns the one-time code the approval page would render.
type approveResponse struct {
	OneTimeCode string `json:"one_time_code"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.DateNonce == "" || req.ConnectionName == "" || req.RequestHash == "" {
		h.writeError(w, http.StatusBadRequest, "date_nonce, connection_name and request_hash are required")
		return
	}

	requestID, expiresAt, err := h.registry.Register(req.DateNonce, req.ConnectionName, req.RequestHash)
	if err != nil {
		h.writeError(w, http.StatusForbidden, err.Error())
		return
	}

	h.logger.Info(r.Context(), "handshake registered", "request_id", requestID)

	h.writeJSON(w, &api.LoginResponse{
		RequestID:   requestID,
		ApprovalURL: fmt.Sprintf("http://%s/approve?request_id=%s", r.Host, requestID),
		ExpiresAt:   expiresAt,
	})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.RequestID = r.URL.Query().Get("request_id")
	}
	if req.RequestID == "" {
		req.RequestID = r.URL.Query().Get("request_id")
	}
	if req.RequestID == "" {
		h.writeError(w, http.StatusBadRequest, "request_id is required")
		return
	}

	code, err := h.registry.Approve(req.RequestID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.Info(r.Context(), "handshake approved", "request_id", req.RequestID)
	h.writeJSON(w, &approveResponse{OneTimeCode: code})
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	var req api.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RequestID == "" {
		h.writeError(w, http.StatusBadRequest, "request_id is required")
		return
	}

	approved, sealed, err := h.registry.Check(req.RequestID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	h.writeJSON(w, &api.CheckResponse{Approved: approved, EncryptedAuthToken: sealed})
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	var req api.AuthenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SyncID == "" {
		h.writeError(w, http.StatusBadRequest, "sync_id is required")
		return
	}

	userID, err := h.registry.Authenticate(req.SyncID)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, err := auth.GenerateToken(userID, h.secretKey, h.tokenValidity)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	h.logger.Info(r.Context(), "bearer token issued", "user_id", userID)

	h.writeJSON(w, &api.AuthenticateResponse{
		AccessToken: token,
		ExpiresIn:   int64(h.tokenValidity.Seconds()),
		UserID:      userID,
	})
}

// logout requires the full authorized header set: a valid bearer token, the
// sync id it was issued through, and the matching user id. Authorization is
// keyed on the combination, not the token alone.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	bearer := strings.TrimPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerPrefix)
	syncID := r.Header.Get(common.SyncIDHeaderName)
	claimedUserID := r.Header.Get(common.UserIDHeaderName)

	if bearer == "" || syncID == "" || claimedUserID == "" {
		h.writeError(w, http.StatusUnauthorized, "missing authorization headers")
		return
	}

	userID, err := auth.GetUserIDFromToken(bearer, h.secretKey)
	if err != nil || userID != claimedUserID {
		h.writeError(w, http.StatusUnauthorized, "invalid bearer token")
		return
	}

	if err := h.registry.Revoke(syncID, userID); err != nil {
		h.writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	h.logger.Info(r.Context(), "session revoked", "user_id", userID)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
