// Package api is the storefront's REST client. Every state-changing request
// carries an anti-forgery token; a rejection for a stale token is recovered
// once with a forced refresh and a single replay.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/google/uuid"

	"github.com/seonmall/storefront/pkg/logger"
)

const (
	headerCSRF      = "X-CSRF-Token"
	headerRequestID = "X-Request-ID"
)

// TokenProvider supplies the current bearer token, empty when anonymous.
type TokenProvider func() string

// Client talks to the storefront API.
type Client struct {
	config        Config
	httpClient    *http.Client
	csrf          *csrfManager
	tokenProvider TokenProvider
}

// NewClient creates a new API client with the given configuration.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Cookie jar so the refresh-token cookie set by the auth endpoints
	// rides along on every call.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	httpClient := &http.Client{
		Timeout: config.timeout(),
		Jar:     jar,
	}

	c := &Client{
		config:     config,
		httpClient: httpClient,
	}
	c.csrf = newCSRFManager(c.fetchCSRFToken, config.csrfValidity(), config.csrfMinRefetch())
	return c, nil
}

// SetTokenProvider installs the bearer-token source, typically the session
// manager. A nil provider sends requests anonymously.
func (c *Client) SetTokenProvider(p TokenProvider) {
	c.tokenProvider = p
}

// fetchCSRFToken is the raw anti-forgery fetch behind the csrf manager.
func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	var resp csrfTokenResponse
	if err := c.do(ctx, http.MethodGet, "/auth/csrf-token", nil, &resp, false); err != nil {
		return "", err
	}
	if resp.CSRFToken == "" {
		return "", fmt.Errorf("%w: empty csrf token", ErrNetworkError)
	}
	return resp.CSRFToken, nil
}

// doRequest performs a request with the security interceptors applied:
// anti-forgery attachment on non-read methods and a single replay after an
// anti-forgery rejection.
func (c *Client) doRequest(ctx context.Context, method, path string, payload, out interface{}) error {
	err := c.do(ctx, method, path, payload, out, method != http.MethodGet)
	if err == nil || !IsCSRFRejection(err) {
		return err
	}

	logger.Warn("Request rejected for stale anti-forgery token, replaying once", map[string]interface{}{
		"method": method,
		"path":   path,
	})
	if _, refreshErr := c.csrf.ForceRefresh(ctx); refreshErr != nil {
		// Replay anyway; the server stays the authority.
		logger.Warn("Forced anti-forgery refresh failed", map[string]interface{}{
			"error": refreshErr.Error(),
		})
	}
	return c.do(ctx, method, path, payload, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}, withCSRF bool) error {
	var body io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	url := c.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokenProvider != nil {
		if token := c.tokenProvider(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if withCSRF {
		// A failed fetch degrades to sending without the header rather
		// than blocking the request client-side.
		if token, err := c.csrf.Token(ctx); err == nil && token != "" {
			req.Header.Set(headerCSRF, token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

func parseErrorResponse(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || (errResp.Error == "" && errResp.Message == "") {
		trimmed := strings.TrimSpace(string(body))
		return &APIError{Status: status, Message: truncate(trimmed, 200)}
	}
	return &APIError{Status: status, Code: errResp.Error, Message: errResp.Message}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
