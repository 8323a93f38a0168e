package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
)

const (
	loginPath        = "/auth/login"
	checkPath        = "/auth/check"
	authenticatePath = "/auth/authenticate"
	logoutPath       = "/auth/logout"
)

// HTTPClient talks to the authorization service over plain HTTP POSTs.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a client for the service at baseURL. The timeout
// bounds each individual request; per-call contexts can shorten it further.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) BeginLogin(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.postJSON(ctx, loginPath, req, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) CheckApproval(ctx context.Context, requestID string) (*CheckResponse, error) {
	var resp CheckResponse
	if err := c.postJSON(ctx, checkPath, &CheckRequest{RequestID: requestID}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Authenticate(ctx context.Context, syncID string) (*AuthenticateResponse, error) {
	var resp AuthenticateResponse
	if err := c.postJSON(ctx, authenticatePath, &AuthenticateRequest{SyncID: syncID}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Logout(ctx context.Context, headers map[string]string) error {
	return c.postJSON(ctx, logoutPath, nil, headers, nil)
}

// postJSON performs one POST with an optional JSON body and optional extra
// headers, decoding a 2xx response into out when out is non-nil.
func (c *HTTPClient) postJSON(ctx context.Context, path string, body any, headers map[string]string, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return c.mapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newServerError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// mapError translates transport-level failures into the shared sentinel so
// callers can branch with errors.Is instead of probing url.Error internals.
// Timeouts and refused connections look the same to the caller: the server
// was not reachable in time.
func (c *HTTPClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return common.ErrServerUnavailable
	}
	return fmt.Errorf("http error: %w", err)
}
