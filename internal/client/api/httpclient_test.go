package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, 5*time.Second)
}

func TestBeginLogin_SendsFingerprintNotIdentity(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(LoginResponse{
			RequestID:   "req-1",
			ApprovalURL: "https://auth.example/approve/req-1",
			ExpiresAt:   time.Now().Add(5 * time.Minute),
		})
	}))

	resp, err := c.BeginLogin(context.Background(), &LoginRequest{
		DateNonce:      "1724198400000",
		ConnectionName: "workstation-7",
		RequestHash:    "deadbeef",
	})
	require.NoError(t, err)
	require.Equal(t, "req-1", resp.RequestID)
	require.Equal(t, "https://auth.example/approve/req-1", resp.ApprovalURL)

	require.Equal(t, "/auth/login", gotPath)
	require.Equal(t, "1724198400000", gotBody["date_nonce"])
	require.Equal(t, "workstation-7", gotBody["connection_name"])
	require.Equal(t, "deadbeef", gotBody["request_hash"])
	require.Len(t, gotBody, 3, "only nonce, connection name and hash may cross the wire")
}

func TestCheckApproval_DecodesBlob(t *testing.T) {
	blob := []byte{1, 2, 3, 4, 5}

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/check", r.URL.Path)

		var req CheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "req-1", req.RequestID)

		json.NewEncoder(w).Encode(CheckResponse{Approved: true, EncryptedAuthToken: blob})
	}))

	resp, err := c.CheckApproval(context.Background(), "req-1")
	require.NoError(t, err)
	require.True(t, resp.Approved)
	require.Equal(t, blob, resp.EncryptedAuthToken)
}

func TestAuthenticate_ReturnsBearerMaterial(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/authenticate", r.URL.Path)

		var req AuthenticateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "sync-abc", req.SyncID)

		json.NewEncoder(w).Encode(AuthenticateResponse{
			AccessToken: "tok",
			ExpiresIn:   3600,
			UserID:      "user-9",
		})
	}))

	resp, err := c.Authenticate(context.Background(), "sync-abc")
	require.NoError(t, err)
	require.Equal(t, "tok", resp.AccessToken)
	require.Equal(t, int64(3600), resp.ExpiresIn)
	require.Equal(t, "user-9", resp.UserID)
}

func TestLogout_SendsAuthorizedHeaders(t *testing.T) {
	var gotAuth, gotSync, gotUser string

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/logout", r.URL.Path)
		gotAuth = r.Header.Get(common.AuthorizationHeaderName)
		gotSync = r.Header.Get(common.SyncIDHeaderName)
		gotUser = r.Header.Get(common.UserIDHeaderName)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.Logout(context.Background(), map[string]string{
		common.AuthorizationHeaderName: "Bearer tok",
		common.SyncIDHeaderName:        "sync-abc",
		common.UserIDHeaderName:        "user-9",
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer tok", gotAuth)
	require.Equal(t, "sync-abc", gotSync)
	require.Equal(t, "user-9", gotUser)
}

func TestPostJSON_ServerErrorPreservesMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown identity"})
	}))

	_, err := c.BeginLogin(context.Background(), &LoginRequest{})
	require.Error(t, err)

	var se *ServerError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusForbidden, se.Status)
	require.Equal(t, "unknown identity", se.Message)
	require.Contains(t, err.Error(), "unknown identity")
}

func TestPostJSON_NonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))

	_, err := c.CheckApproval(context.Background(), "req-1")

	var se *ServerError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.Status)
	require.Equal(t, "gateway exploded", se.Message)
}

func TestPostJSON_ConnectionRefusedMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, 1*time.Second)
	_, err := c.CheckApproval(context.Background(), "req-1")
	require.ErrorIs(t, err, common.ErrServerUnavailable)
}

func TestPostJSON_ContextCancelled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client disconnect
		// and cancel the request context; otherwise Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.CheckApproval(ctx, "req-1")
	require.ErrorIs(t, err, common.ErrServerUnavailable)
}
