package session

import (
	"context"
	"errors"
	"sync"

	apihttp "github.com/ClareAI/astra-voice-admin/internal/adapters/http"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

// ErrNoSession is returned when verification is attempted without a stored token.
var ErrNoSession = errors.New("no stored session")

// Verifier confirms a stored token with the backend.
type Verifier interface {
	Verify(ctx context.Context) (*domain.AdminProfile, error)
}

// Refresher exchanges a refresh token for a new session. A Verifier that
// also implements it gets one refresh attempt when the token is rejected.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*domain.LoginResult, error)
}

// AuthState is the in-memory auth state.
type AuthState struct {
	Authenticated bool
	Loading       bool
	Profile       *domain.AdminProfile
}

// AuthStore is the reactive in-memory auth state. It is a cache over the
// Provider: writes go to the provider first, then to memory.
type AuthStore struct {
	provider Provider
	verifier Verifier

	mu        sync.RWMutex
	state     AuthState
	done      chan struct{}
	listeners []func(AuthState)
}

// NewAuthStore creates an auth store. The initial state is unauthenticated and not loading.
func NewAuthStore(provider Provider, verifier Verifier) *AuthStore {
	done := make(chan struct{})
	close(done)
	return &AuthStore{provider: provider, verifier: verifier, done: done}
}

// State returns a snapshot of the auth state.
func (s *AuthStore) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to be called after every state change.
func (s *AuthStore) Subscribe(fn func(AuthState)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *AuthStore) set(state AuthState) {
	s.mu.Lock()
	s.state = state
	listeners := append([]func(AuthState){}, s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l(state)
	}
}

// BeginVerify marks the store as loading and returns false if a verification
// is already in flight.
func (s *AuthStore) BeginVerify() bool {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		s.mu.Unlock()
		return false
	}
	s.done = make(chan struct{})
	s.state.Loading = true
	state := s.state
	listeners := append([]func(AuthState){}, s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l(state)
	}
	return true
}

// Verify performs the server round-trip for the stored token. On failure the
// state resets to unauthenticated and the local session artifacts are cleared.
func (s *AuthStore) Verify(ctx context.Context) error {
	started := s.BeginVerify()
	if !started {
		return s.Wait(ctx)
	}
	err := s.verify(ctx)
	s.mu.Lock()
	close(s.done)
	s.mu.Unlock()
	return err
}

// StartVerify runs Verify in the background.
func (s *AuthStore) StartVerify(ctx context.Context) {
	if !s.BeginVerify() {
		return
	}
	go func() {
		err := s.verify(ctx)
		s.mu.Lock()
		close(s.done)
		s.mu.Unlock()
		if err != nil {
			logger.Info(ctx, "session verification failed", zap.Error(err))
		}
	}()
}

func (s *AuthStore) verify(ctx context.Context) error {
	stored, err := s.provider.GetSession(ctx)
	if err != nil {
		s.set(AuthState{})
		return err
	}
	if stored == nil {
		s.set(AuthState{})
		return ErrNoSession
	}

	profile, err := s.verifier.Verify(ctx)
	if err != nil && apihttp.IsUnauthorized(err) {
		if refreshed, ok := s.refresh(ctx, stored); ok {
			stored = refreshed
			profile, err = s.verifier.Verify(ctx)
		}
	}
	if err != nil {
		if clearErr := s.provider.ClearSession(ctx); clearErr != nil {
			logger.Warn(ctx, "failed to clear invalid session", zap.Error(clearErr))
		}
		s.set(AuthState{})
		return err
	}

	if profile != nil {
		stored.Profile = profile
		if err := s.provider.SetSession(ctx, stored); err != nil {
			logger.Warn(ctx, "failed to refresh cached admin profile", zap.Error(err))
		}
	} else {
		profile = stored.Profile
	}
	s.set(AuthState{Authenticated: true, Profile: profile})
	return nil
}

// refresh swaps the stored session for a refreshed one. It reports false
// when no refresh was possible.
func (s *AuthStore) refresh(ctx context.Context, stored *domain.AuthSession) (*domain.AuthSession, bool) {
	r, ok := s.verifier.(Refresher)
	if !ok || stored.RefreshToken == "" {
		return nil, false
	}
	res, err := r.Refresh(ctx, stored.RefreshToken)
	if err != nil {
		logger.Info(ctx, "session refresh failed", zap.Error(err))
		return nil, false
	}
	next := res.Session()
	if next.RefreshToken == "" {
		next.RefreshToken = stored.RefreshToken
	}
	if next.Profile.ID == "" {
		next.Profile = stored.Profile
	}
	if err := s.provider.SetSession(ctx, next); err != nil {
		logger.Warn(ctx, "failed to store refreshed session", zap.Error(err))
		return nil, false
	}
	logger.Info(ctx, "session token refreshed")
	return next, true
}

// Wait blocks until no verification is in flight or ctx ends.
func (s *AuthStore) Wait(ctx context.Context) error {
	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SignIn persists a fresh session and marks the store authenticated.
func (s *AuthStore) SignIn(ctx context.Context, session *domain.AuthSession) error {
	if err := s.provider.SetSession(ctx, session); err != nil {
		return err
	}
	s.set(AuthState{Authenticated: true, Profile: session.Profile})
	return nil
}

// SignOut clears the persisted session and resets the store.
func (s *AuthStore) SignOut(ctx context.Context) error {
	err := s.provider.ClearSession(ctx)
	s.set(AuthState{})
	return err
}
