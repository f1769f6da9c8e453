package assignment

import (
	"context"
	"fmt"

	"github.com/ClareAI/astra-voice-admin/internal/cache"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

// API is the voice assignment surface of the admin API.
type API interface {
	ListAssignments(ctx context.Context) ([]domain.VoiceAssignment, error)
	ListAssignmentsByUser(ctx context.Context, userID string) ([]domain.VoiceAssignment, error)
	AssignVoice(ctx context.Context, req domain.AssignVoiceRequest) (*domain.VoiceAssignment, error)
	UpdateAssignment(ctx context.Context, id string, req domain.UpdateAssignmentRequest) (*domain.VoiceAssignment, error)
	DeleteAssignment(ctx context.Context, id string) error
}

// AssignmentService manages user voice assignments. Mutations are never
// applied to the cache ahead of the server: lists change only after a
// successful call invalidates them.
type AssignmentService struct {
	api   API
	cache *cache.QueryCache
}

func NewAssignmentService(api API, qc *cache.QueryCache) *AssignmentService {
	return &AssignmentService{api: api, cache: qc}
}

// List returns every assignment.
func (s *AssignmentService) List(ctx context.Context) ([]domain.VoiceAssignment, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyAssignments, s.api.ListAssignments)
}

// ListByUser returns one user's assignments.
func (s *AssignmentService) ListByUser(ctx context.Context, userID string) ([]domain.VoiceAssignment, error) {
	return cache.Fetch(ctx, s.cache, cache.AssignmentsByUserKey(userID), func(ctx context.Context) ([]domain.VoiceAssignment, error) {
		return s.api.ListAssignmentsByUser(ctx, userID)
	})
}

// ActiveForUser returns the assignments a user can pick voices from.
func (s *AssignmentService) ActiveForUser(ctx context.Context, userID string) ([]domain.VoiceAssignment, error) {
	all, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.VoiceAssignment, 0, len(all))
	for _, a := range all {
		if a.Status == domain.AssignmentActive && !a.Deleted() {
			out = append(out, a)
		}
	}
	return out, nil
}

// Assign grants a voice to a user.
func (s *AssignmentService) Assign(ctx context.Context, req domain.AssignVoiceRequest) (*domain.VoiceAssignment, error) {
	if req.UserID == "" || req.VoiceID == "" {
		return nil, fmt.Errorf("%w: user and voice are required", domain.ErrInvalidInput)
	}
	a, err := s.api.AssignVoice(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(req.UserID)
	logger.Info(ctx, "voice assigned", zap.String("user_id", req.UserID), zap.String("voice_id", req.VoiceID))
	return a, nil
}

// Update changes an assignment's project label or status.
func (s *AssignmentService) Update(ctx context.Context, id string, req domain.UpdateAssignmentRequest) (*domain.VoiceAssignment, error) {
	a, err := s.api.UpdateAssignment(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(a.UserID)
	return a, nil
}

// Delete removes an assignment once the server confirms it.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteAssignment(ctx, id); err != nil {
		return err
	}
	s.invalidate("")
	logger.Info(ctx, "voice assignment deleted", zap.String("assignment_id", id))
	return nil
}

func (s *AssignmentService) invalidate(userID string) {
	if userID == "" {
		s.cache.InvalidatePrefix(cache.KeyAssignments)
		return
	}
	s.cache.Invalidate(cache.KeyAssignments, cache.AssignmentsByUserKey(userID))
}
