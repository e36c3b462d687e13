// Package api is the HTTP client for the Relaypoint backend. All requests go
// through Transport, which attaches the stored credential and reacts to
// authentication failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://api.relaypoint.dev"

// Client talks to the Relaypoint session API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// LoginResponse is returned by the login endpoint
type LoginResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token,omitempty"`
	Error string `json:"error,omitempty"`
}

// Identity describes the session the backend associates with the credential
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Org      string `json:"org,omitempty"`
}

// WhoamiResponse is returned by the whoami endpoint
type WhoamiResponse struct {
	OK       bool      `json:"ok"`
	Identity *Identity `json:"identity,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// NewClient creates a client whose requests carry the credential from source.
func NewClient(baseURL string, source TokenSource, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: NewTransport(source),
		},
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: httpClient,
	}
}

// Login exchanges a username and password for an opaque session token. The
// token is returned, not stored; persisting it is the session controller's
// job.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	status, respBody, err := c.doRequest(ctx, "POST", "/v1/session/login", body)
	if err != nil {
		return "", err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return "", fmt.Errorf("invalid username or password (HTTP %d)", status)
	}
	if status >= 400 {
		return "", apiError(status, respBody)
	}

	var resp LoginResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to parse login response: %w", err)
	}
	if !resp.OK || resp.Token == "" {
		return "", fmt.Errorf("login failed: %s", resp.Error)
	}

	return resp.Token, nil
}

// Verify checks that the stored credential is still accepted by the backend.
// It returns ErrAuthRequired (wrapped) on 401 or 403; by then the transport
// has already cleared the store.
func (c *Client) Verify(ctx context.Context) error {
	status, respBody, err := c.doRequest(ctx, "GET", "/v1/session/verify", nil)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return authError(status)
	}
	if status >= 400 {
		return apiError(status, respBody)
	}
	return nil
}

// Whoami returns the identity the backend associates with the credential.
func (c *Client) Whoami(ctx context.Context) (*Identity, error) {
	status, respBody, err := c.doRequest(ctx, "GET", "/v1/session/whoami", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, authError(status)
	}
	if status >= 400 {
		return nil, apiError(status, respBody)
	}

	var resp WhoamiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse whoami response: %w", err)
	}
	if !resp.OK || resp.Identity == nil {
		return nil, fmt.Errorf("whoami failed: %s", resp.Error)
	}

	return resp.Identity, nil
}

// Do performs an arbitrary authenticated request. The original status and
// body are always returned; on 401 or 403 err additionally wraps
// ErrAuthRequired so callers can re-route.
func (c *Client) Do(ctx context.Context, method, path string) (int, []byte, error) {
	status, respBody, err := c.doRequest(ctx, method, path, nil)
	if err != nil {
		return 0, nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return status, respBody, authError(status)
	}
	return status, respBody, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

func authError(status int) error {
	return fmt.Errorf("server rejected credential (HTTP %d): %w", status, ErrAuthRequired)
}

func apiError(status int, body []byte) error {
	return fmt.Errorf("API error (HTTP %d): %s", status, string(body))
}
