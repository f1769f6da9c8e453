package http

import (
	"context"
	"net/http"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
)

// Login calls POST /auth/login
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	res, err := send[domain.LoginResult](ctx, c, http.MethodPost, "/auth/login", req)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout calls POST /auth/logout
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Verify checks the current token with GET /auth/verify and returns the admin profile.
func (c *Client) Verify(ctx context.Context) (*domain.AdminProfile, error) {
	profile, err := get[domain.AdminProfile](ctx, c, "/auth/verify", nil)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Refresh exchanges a refresh token for a new session via POST /auth/refresh-token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.LoginResult, error) {
	body := map[string]string{"refreshToken": refreshToken}
	res, err := send[domain.LoginResult](ctx, c, http.MethodPost, "/auth/refresh-token", body)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
