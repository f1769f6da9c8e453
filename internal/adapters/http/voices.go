package http

import (
	"context"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
)

// ListVoices calls GET /admin/voices
func (c *Client) ListVoices(ctx context.Context) ([]domain.Voice, error) {
	return get[[]domain.Voice](ctx, c, "/admin/voices", nil)
}

// GetVoice calls GET /admin/voices/{id}
func (c *Client) GetVoice(ctx context.Context, id string) (*domain.Voice, error) {
	v, err := get[domain.Voice](ctx, c, pathf("/admin/voices/%s", id), nil)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
