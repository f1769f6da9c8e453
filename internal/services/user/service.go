package user

import (
	"context"
	"fmt"

	"github.com/ClareAI/astra-voice-admin/internal/cache"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

// API is the slice of the admin API the user service calls.
type API interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, req domain.UpdateUserRequest) (*domain.User, error)
	SetUserApproval(ctx context.Context, id string, approval int) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserService serves cached user reads and user mutations.
type UserService struct {
	api   API
	cache *cache.QueryCache
}

// NewUserService creates a user service over api sharing qc with the other services.
func NewUserService(api API, qc *cache.QueryCache) *UserService {
	return &UserService{api: api, cache: qc}
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyUsers, s.api.ListUsers)
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := cache.Fetch(ctx, s.cache, cache.UserKey(id), func(ctx context.Context) (domain.User, error) {
		u, err := s.api.GetUser(ctx, id)
		if err != nil {
			return domain.User{}, err
		}
		return *u, nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Owners returns the users that may be selected as assistant owners.
func (s *UserService) Owners(ctx context.Context) ([]domain.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	owners := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.CanOwnAssistants() {
			owners = append(owners, u)
		}
	}
	return owners, nil
}

// Create creates a user.
func (s *UserService) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	u, err := s.api.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix(cache.KeyUsers)
	logger.Info(ctx, "user created", zap.String("user_id", u.ID))
	return u, nil
}

// Update applies a partial update.
func (s *UserService) Update(ctx context.Context, id string, req domain.UpdateUserRequest) (*domain.User, error) {
	u, err := s.api.UpdateUser(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix(cache.KeyUsers)
	return u, nil
}

// Delete removes a user. Assistants and assignments listings embed user
// summaries, so they are invalidated too.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidatePrefix(cache.KeyUsers)
	s.cache.InvalidatePrefix(cache.KeyAssistants)
	s.cache.InvalidatePrefix(cache.KeyAssignments)
	logger.Info(ctx, "user deleted", zap.String("user_id", id))
	return nil
}

// ToggleApproval flips the user's approval flag. The cached user list shows
// the new value immediately and is restored if the server rejects the change.
// It returns the new approval value.
func (s *UserService) ToggleApproval(ctx context.Context, id string) (int, error) {
	current, err := s.currentApproval(ctx, id)
	if err != nil {
		return 0, err
	}
	next := domain.ApprovalApproved
	if current == domain.ApprovalApproved {
		next = domain.ApprovalPending
	}

	apply := func(users []domain.User) []domain.User {
		for i := range users {
			if users[i].ID == id {
				users[i].IsApproval = next
			}
		}
		return users
	}
	commit := func(ctx context.Context) error {
		_, err := s.api.SetUserApproval(ctx, id, next)
		return err
	}
	if err := cache.Optimistic(ctx, s.cache, cache.KeyUsers, apply, commit); err != nil {
		logger.Warn(ctx, "approval toggle failed", zap.String("user_id", id), zap.Error(err))
		return current, err
	}
	s.cache.Invalidate(cache.UserKey(id))
	return next, nil
}

func (s *UserService) currentApproval(ctx context.Context, id string) (int, error) {
	if users, ok := cache.Get[[]domain.User](s.cache, cache.KeyUsers); ok {
		for _, u := range users {
			if u.ID == id {
				return u.IsApproval, nil
			}
		}
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return u.IsApproval, nil
}
