package http

import (
	"context"
	"net/http"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
)

// ListUsers calls GET /users
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	return get[[]domain.User](ctx, c, "/users", nil)
}

// GetUser calls GET /users/{id}
func (c *Client) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := get[domain.User](ctx, c, pathf("/users/%s", id), nil)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser calls POST /users
func (c *Client) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	user, err := send[domain.User](ctx, c, http.MethodPost, "/users", req)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser calls PUT /users/{id}
func (c *Client) UpdateUser(ctx context.Context, id string, req domain.UpdateUserRequest) (*domain.User, error) {
	user, err := send[domain.User](ctx, c, http.MethodPut, pathf("/users/%s", id), req)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserApproval calls PATCH /users/{id}/approval
func (c *Client) SetUserApproval(ctx context.Context, id string, approval int) (*domain.User, error) {
	user, err := send[domain.User](ctx, c, http.MethodPatch, pathf("/users/%s/approval", id), domain.ApprovalRequest{IsApproval: approval})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser calls DELETE /users/{id}
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathf("/users/%s", id), nil, nil, nil)
}
