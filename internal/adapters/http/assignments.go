package http

import (
	"context"
	"net/http"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
)

// ListAssignments calls GET /assign-user-voice
func (c *Client) ListAssignments(ctx context.Context) ([]domain.VoiceAssignment, error) {
	return get[[]domain.VoiceAssignment](ctx, c, "/assign-user-voice", nil)
}

// ListAssignmentsByUser calls GET /assign-user-voice/user/{userId}
func (c *Client) ListAssignmentsByUser(ctx context.Context, userID string) ([]domain.VoiceAssignment, error) {
	return get[[]domain.VoiceAssignment](ctx, c, pathf("/assign-user-voice/user/%s", userID), nil)
}

// AssignVoice calls POST /assign-user-voice
func (c *Client) AssignVoice(ctx context.Context, req domain.AssignVoiceRequest) (*domain.VoiceAssignment, error) {
	a, err := send[domain.VoiceAssignment](ctx, c, http.MethodPost, "/assign-user-voice", req)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAssignment calls PUT /assign-user-voice/{id}
func (c *Client) UpdateAssignment(ctx context.Context, id string, req domain.UpdateAssignmentRequest) (*domain.VoiceAssignment, error) {
	a, err := send[domain.VoiceAssignment](ctx, c, http.MethodPut, pathf("/assign-user-voice/%s", id), req)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAssignment calls DELETE /assign-user-voice/{id}
func (c *Client) DeleteAssignment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, pathf("/assign-user-voice/%s", id), nil, nil, nil)
}
