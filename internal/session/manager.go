package session

import (
	"context"
	"fmt"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

// Authenticator is the backend auth surface the session layer needs.
type Authenticator interface {
	Verifier
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error)
	Logout(ctx context.Context) error
}

// Manager wires provider, store, reconciler and guard for one operator session.
type Manager struct {
	kv         KVStore
	provider   *StoreProvider
	store      *AuthStore
	reconciler *Reconciler
	guard      *Guard
	auth       Authenticator
}

// NewManager builds the session stack over kv.
func NewManager(ctx context.Context, kv KVStore, auth Authenticator) *Manager {
	provider := NewProvider(kv)
	store := NewAuthStore(provider, auth)
	reconciler := NewReconciler(ctx, store, provider)
	guard := NewGuard(reconciler.Status())

	m := &Manager{
		kv:         kv,
		provider:   provider,
		store:      store,
		reconciler: reconciler,
		guard:      guard,
		auth:       auth,
	}
	reconciler.OnChange(func(s Status) { guard.Apply(context.Background(), s) })
	return m
}

// Start subscribes to storage changes and kicks off background verification
// of any stored session.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.reconciler.Watch(ctx, m.kv); err != nil {
		return fmt.Errorf("failed to watch session store: %w", err)
	}
	if local, err := m.provider.GetSession(ctx); err == nil && local != nil {
		m.store.StartVerify(ctx)
	} else {
		m.reconciler.Evaluate(ctx)
	}
	return nil
}

// Token returns the stored bearer token, or "" when signed out.
func (m *Manager) Token(ctx context.Context) string {
	return m.provider.Token(ctx)
}

// Status returns the reconciled status.
func (m *Manager) Status() Status { return m.reconciler.Status() }

// GuardState returns the guard's current state.
func (m *Manager) GuardState() GuardState { return m.guard.State() }

// Check evaluates access to path. While verifying it waits for the in-flight
// verification to settle (bounded by ctx) before deciding.
func (m *Manager) Check(ctx context.Context, path string) Decision {
	decision := m.guard.Check(path)
	if decision.State != Verifying {
		return decision
	}
	if err := m.store.Wait(ctx); err != nil {
		return decision
	}
	m.reconciler.Evaluate(ctx)
	return m.guard.Check(path)
}

// Login authenticates against the backend and persists the session.
func (m *Manager) Login(ctx context.Context, req domain.LoginRequest) (*domain.AdminProfile, error) {
	res, err := m.auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	s := res.Session()
	if err := m.store.SignIn(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	logger.Info(ctx, "operator signed in", zap.String("email", s.Profile.Email))
	return s.Profile, nil
}

// Logout ends the session locally; a backend failure is logged, not returned.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.auth.Logout(ctx); err != nil {
		logger.Warn(ctx, "backend logout failed, clearing local session anyway", zap.Error(err))
	}
	return m.store.SignOut(ctx)
}

// Verify runs a synchronous verification of the stored session.
func (m *Manager) Verify(ctx context.Context) error {
	return m.store.Verify(ctx)
}

// Preferences returns the UI preference accessor sharing this session's store.
func (m *Manager) Preferences() *Preferences {
	return NewPreferences(m.kv)
}
