package api

import (
	"context"
	"fmt"
	"net/http"
)

// SignIn exchanges credentials for a user profile and access token. The
// refresh-token cookie is captured by the client's cookie jar.
func (c *Client) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/sign-in", req, &resp); err != nil {
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}
	return &resp, nil
}

// SignUp registers a new account and signs it in.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/sign-up", req, &resp); err != nil {
		return nil, fmt.Errorf("sign-up failed: %w", err)
	}
	return &resp, nil
}

// RefreshToken silently renews the access token using the refresh cookie.
func (c *Client) RefreshToken(ctx context.Context) (*RefreshResponse, error) {
	var resp RefreshResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/refresh-token", nil, &resp); err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return &resp, nil
}

// SignOut invalidates the session server-side. Callers treat failures as
// best-effort; local state is cleared regardless.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/auth/sign-out", nil, nil); err != nil {
		return fmt.Errorf("sign-out failed: %w", err)
	}
	return nil
}
