package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/client/api"
	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/cryptox"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/auth"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *Registry) {
	t.Helper()
	registry := NewRegistry([]Identity{testIdentity}, time.Minute, 0)
	handler := NewHandler(registry, logging.NewNopLogger(), []byte(testSecret), 15*time.Minute)
	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)
	return srv, registry
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) *T {
	t.Helper()
	out := new(T)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return out
}

func loginRequest(nonce string) *api.LoginRequest {
	return &api.LoginRequest{
		DateNonce:      nonce,
		ConnectionName: "workstation-7",
		RequestHash:    cryptox.RequestFingerprint(testIdentity.Username, testIdentity.Email, nonce, "workstation-7"),
	}
}

func TestLoginEndpoint_RegistersAndReturnsApprovalURL(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/auth/login", loginRequest("1724198400000"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[api.LoginResponse](t, resp)
	require.NotEmpty(t, body.RequestID)
	require.Contains(t, body.ApprovalURL, "/approve?request_id="+body.RequestID)
	require.True(t, body.ExpiresAt.After(time.Now()))
}

func TestLoginEndpoint_UnknownFingerprint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := loginRequest("1724198400000")
	req.RequestHash = "0000000000000000000000000000000000000000000000000000000000000000"

	resp := postJSON(t, srv.URL+"/auth/login", req, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	require.Contains(t, (*body)["error"], "fingerprint")
}

func TestFullWireFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	// initiate
	resp := postJSON(t, srv.URL+"/auth/login", loginRequest("1724198400000"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[api.LoginResponse](t, resp)

	// first poll: not yet approved
	resp = postJSON(t, srv.URL+"/auth/check", &api.CheckRequest{RequestID: login.RequestID}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	check := decode[api.CheckResponse](t, resp)
	require.False(t, check.Approved)

	// the human approves and reads the code off the page
	resp = postJSON(t, srv.URL+"/approve", &approveRequest{RequestID: login.RequestID}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approve := decode[approveResponse](t, resp)
	require.NotEmpty(t, approve.OneTimeCode)

	// second poll: approved, sealed code present
	resp = postJSON(t, srv.URL+"/auth/check", &api.CheckRequest{RequestID: login.RequestID}, nil)
	check = decode[api.CheckResponse](t, resp)
	require.True(t, check.Approved)

	key := cryptox.DeriveRequestKey(testIdentity.Username, testIdentity.Email, "workstation-7", "1724198400000")
	plain, err := cryptox.Open(key, check.EncryptedAuthToken)
	require.NoError(t, err)
	require.Equal(t, approve.OneTimeCode, string(plain))

	// exchange
	syncID := cryptox.SyncID(login.RequestID, approve.OneTimeCode)
	resp = postJSON(t, srv.URL+"/auth/authenticate", &api.AuthenticateRequest{SyncID: syncID}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok := decode[api.AuthenticateResponse](t, resp)
	require.NotEmpty(t, tok.AccessToken)
	require.NotEmpty(t, tok.UserID)
	require.EqualValues(t, (15 * time.Minute).Seconds(), tok.ExpiresIn)

	// the bearer token is a real JWT for the configured identity
	uid, err := auth.GetUserIDFromToken(tok.AccessToken, []byte(testSecret))
	require.NoError(t, err)
	require.Equal(t, tok.UserID, uid)

	// logout with the full header set
	headers := map[string]string{
		common.AuthorizationHeaderName: common.BearerPrefix + tok.AccessToken,
		common.SyncIDHeaderName:        syncID,
		common.UserIDHeaderName:        tok.UserID,
	}
	resp = postJSON(t, srv.URL+"/auth/logout", nil, headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the binding is gone
	resp = postJSON(t, srv.URL+"/auth/authenticate", &api.AuthenticateRequest{SyncID: syncID}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticateEndpoint_UnknownSyncID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/auth/authenticate", &api.AuthenticateRequest{SyncID: "bogus"}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutEndpoint_RejectsMissingOrMismatchedHeaders(t *testing.T) {
	srv, registry := newTestServer(t)

	resp := postJSON(t, srv.URL+"/auth/logout", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// a valid token for a different user than claimed
	id := registerTestRequest(t, registry)
	code, err := registry.Approve(id)
	require.NoError(t, err)
	syncID := cryptox.SyncID(id, code)
	userID, err := registry.Authenticate(syncID)
	require.NoError(t, err)

	token, err := auth.GenerateToken(userID, []byte(testSecret), time.Minute)
	require.NoError(t, err)

	headers := map[string]string{
		common.AuthorizationHeaderName: common.BearerPrefix + token,
		common.SyncIDHeaderName:        syncID,
		common.UserIDHeaderName:        "impostor",
	}
	resp = postJSON(t, srv.URL+"/auth/logout", nil, headers)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// the session is still intact
	_, err = registry.Authenticate(syncID)
	require.NoError(t, err)
}
