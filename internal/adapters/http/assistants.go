package http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
)

// ListAssistants calls GET /assistants, optionally restricted to one owner.
func (c *Client) ListAssistants(ctx context.Context, userID string) ([]domain.Assistant, error) {
	var query url.Values
	if userID != "" {
		query = url.Values{"userId": []string{userID}}
	}
	return get[[]domain.Assistant](ctx, c, "/assistants", query)
}

// GetAssistant calls GET /assistants/{id}
func (c *Client) GetAssistant(ctx context.Context, id string) (*domain.Assistant, error) {
	a, err := get[domain.Assistant](ctx, c, pathf("/assistants/%s", id), nil)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAssistant calls POST /assistants
func (c *Client) CreateAssistant(ctx context.Context, req domain.AssistantPayload) (*domain.Assistant, error) {
	a, err := send[domain.Assistant](ctx, c, http.MethodPost, "/assistants", req)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAssistant calls PUT /assistants/{id}
func (c *Client) UpdateAssistant(ctx context.Context, id string, req domain.AssistantPayload) (*domain.Assistant, error) {
	a, err := send[domain.Assistant](ctx, c, http.MethodPut, pathf("/assistants/%s", id), req)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAssistantStatus calls PATCH /assistants/{id}/status
func (c *Client) UpdateAssistantStatus(ctx context.Context, id string, status domain.AssistantStatus) (*domain.Assistant, error) {
	a, err := send[domain.Assistant](ctx, c, http.MethodPatch, pathf("/assistants/%s/status", id), domain.StatusRequest{Status: status})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAssistant calls DELETE /assistants/{id}
func (c *Client) DeleteAssistant(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathf("/assistants/%s", id), nil, nil, nil)
}
