package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// FetchProfile retrieves the signed-in user's profile.
func (c *Client) FetchProfile(ctx context.Context) (*Profile, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload Profile
	if err := c.do(ctx, http.MethodGet, "/users/profile", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpdateProfile patches the signed-in user's profile and returns the result.
func (c *Client) UpdateProfile(ctx context.Context, patch ProfileUpdate) (*Profile, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload Profile
	if err := c.do(ctx, http.MethodPatch, "/users/profile", patch, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpdateLocation stores the user's current location on the backend.
func (c *Client) UpdateLocation(ctx context.Context, loc Location) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPatch, "/users/location", loc, nil)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return nil, &Error{Kind: KindDecode, Op: "POST /auth/login", Status: http.StatusOK, Err: fmt.Errorf("response carried no access_token")}
	}
	return &payload, nil
}

// Register creates an account. The backend may or may not sign the user in.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Logout invalidates the current token on the backend.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPost, "/auth/logout", struct{}{}, nil)
}
