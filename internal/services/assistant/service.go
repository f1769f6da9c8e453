package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClareAI/astra-voice-admin/internal/cache"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

// ErrOwnerImmutable is returned when an update tries to move an assistant to another user.
var ErrOwnerImmutable = errors.New("assistant owner cannot be changed")

// API is the assistant surface of the admin API.
type API interface {
	ListAssistants(ctx context.Context, userID string) ([]domain.Assistant, error)
	GetAssistant(ctx context.Context, id string) (*domain.Assistant, error)
	CreateAssistant(ctx context.Context, req domain.AssistantPayload) (*domain.Assistant, error)
	UpdateAssistant(ctx context.Context, id string, req domain.AssistantPayload) (*domain.Assistant, error)
	UpdateAssistantStatus(ctx context.Context, id string, status domain.AssistantStatus) (*domain.Assistant, error)
	DeleteAssistant(ctx context.Context, id string) error
}

// AssistantService manages assistants.
type AssistantService struct {
	api   API
	cache *cache.QueryCache
}

func NewAssistantService(api API, qc *cache.QueryCache) *AssistantService {
	return &AssistantService{api: api, cache: qc}
}

// List returns all assistants, or only userID's when it is set.
func (s *AssistantService) List(ctx context.Context, userID string) ([]domain.Assistant, error) {
	key := cache.KeyAssistants
	if userID != "" {
		key = cache.AssistantsByUserKey(userID)
	}
	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]domain.Assistant, error) {
		return s.api.ListAssistants(ctx, userID)
	})
}

// Get returns one assistant.
func (s *AssistantService) Get(ctx context.Context, id string) (*domain.Assistant, error) {
	a, err := cache.Fetch(ctx, s.cache, cache.AssistantKey(id), func(ctx context.Context) (domain.Assistant, error) {
		a, err := s.api.GetAssistant(ctx, id)
		if err != nil {
			return domain.Assistant{}, err
		}
		return *a, nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create creates an assistant for payload.UserID.
func (s *AssistantService) Create(ctx context.Context, payload domain.AssistantPayload) (*domain.Assistant, error) {
	if payload.UserID == "" {
		return nil, fmt.Errorf("%w: assistant owner is required", domain.ErrInvalidInput)
	}
	a, err := s.api.CreateAssistant(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix(cache.KeyAssistants)
	s.cache.Invalidate(cache.KeyUsers)
	logger.Info(ctx, "assistant created",
		zap.String("assistant_id", a.ID),
		zap.String("user_id", a.UserID),
		zap.String("agent_name", a.AgentName),
	)
	return a, nil
}

// Update replaces an assistant's configuration. The owner is fixed at creation:
// an empty payload owner is filled in, a different one is rejected.
func (s *AssistantService) Update(ctx context.Context, id string, payload domain.AssistantPayload) (*domain.Assistant, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load assistant %s: %w", id, err)
	}
	if payload.UserID != "" && payload.UserID != existing.UserID {
		return nil, ErrOwnerImmutable
	}
	payload.UserID = existing.UserID

	a, err := s.api.UpdateAssistant(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix(cache.KeyAssistants)
	logger.Info(ctx, "assistant updated", zap.String("assistant_id", id))
	return a, nil
}

// SetStatus changes an assistant's lifecycle status.
func (s *AssistantService) SetStatus(ctx context.Context, id string, status domain.AssistantStatus) (*domain.Assistant, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown assistant status %q", domain.ErrInvalidInput, status)
	}
	a, err := s.api.UpdateAssistantStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix(cache.KeyAssistants)
	return a, nil
}

// Delete removes an assistant once the server confirms it.
func (s *AssistantService) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteAssistant(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidatePrefix(cache.KeyAssistants)
	s.cache.Invalidate(cache.KeyUsers)
	logger.Info(ctx, "assistant deleted", zap.String("assistant_id", id))
	return nil
}
