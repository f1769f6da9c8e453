package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	apihttp "github.com/ClareAI/astra-voice-admin/internal/adapters/http"
	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryKV struct {
	mu        sync.Mutex
	values    map[string]string
	listeners []func(string)
}

func newMemoryKV() *memoryKV { return &memoryKV{values: map[string]string{}} }

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	ls := append([]func(string){}, m.listeners...)
	m.mu.Unlock()
	notify(ls, key)
	return nil
}

func (m *memoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.values, k)
	}
	ls := append([]func(string){}, m.listeners...)
	m.mu.Unlock()
	for _, k := range keys {
		notify(ls, k)
	}
	return nil
}

func (m *memoryKV) Watch(_ context.Context, fn func(string)) error {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
	return nil
}

type stubAuth struct {
	release chan struct{}
	err     error
	profile *domain.AdminProfile
}

func (s *stubAuth) Verify(ctx context.Context) (*domain.AdminProfile, error) {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.profile, s.err
}

func (s *stubAuth) Login(_ context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	if req.Password != "secret" {
		return nil, errors.New("invalid credentials")
	}
	return &domain.LoginResult{Token: "tok", RefreshToken: "ref", User: domain.AdminProfile{ID: "a1", Email: req.Email}}, nil
}

func (s *stubAuth) Logout(context.Context) error { return nil }

func loginOK() domain.LoginRequest {
	return domain.LoginRequest{Email: "ops@example.com", Password: "secret"}
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a1", "exp": exp.Unix()})
	s, err := token.SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestValidLocalSession(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	profile := &domain.AdminProfile{ID: "a1", Email: "ops@example.com"}

	assert.False(t, ValidLocalSession(nil, now))
	assert.False(t, ValidLocalSession(&domain.AuthSession{Token: "opaque"}, now), "profile required")
	assert.False(t, ValidLocalSession(&domain.AuthSession{Profile: profile}, now), "token required")
	assert.True(t, ValidLocalSession(&domain.AuthSession{Token: "opaque", Profile: profile}, now))
	assert.True(t, ValidLocalSession(&domain.AuthSession{Token: signed(t, now.Add(time.Hour)), Profile: profile}, now))
	assert.False(t, ValidLocalSession(&domain.AuthSession{Token: signed(t, now.Add(-time.Minute)), Profile: profile}, now))
}

func TestReconcile(t *testing.T) {
	now := time.Now()
	valid := &domain.AuthSession{Token: "t", Profile: &domain.AdminProfile{ID: "a1"}}

	cases := []struct {
		name     string
		state    AuthState
		local    *domain.AuthSession
		wantAuth bool
		wantLoad bool
	}{
		{"nothing", AuthState{}, nil, false, false},
		{"loading without local", AuthState{Loading: true}, nil, false, true},
		{"loading with local", AuthState{Loading: true}, valid, true, false},
		{"store only", AuthState{Authenticated: true}, nil, true, false},
		{"local only", AuthState{}, valid, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reconcile(tc.state, tc.local, now)
			assert.Equal(t, tc.wantAuth, got.IsAuthenticated)
			assert.Equal(t, tc.wantLoad, got.IsLoading)
		})
	}
}

func TestManager_TrustsLocalSessionBeforeVerification(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	require.NoError(t, NewProvider(kv).SetSession(ctx, &domain.AuthSession{
		Token:   "stored",
		Profile: &domain.AdminProfile{ID: "a1", Email: "ops@example.com"},
	}))

	auth := &stubAuth{release: make(chan struct{}), err: errors.New("token revoked")}
	m := NewManager(ctx, kv, auth)
	assert.Equal(t, Authenticated, m.GuardState())

	require.NoError(t, m.Start(ctx))
	status := m.Status()
	assert.True(t, status.IsAuthenticated)
	assert.False(t, status.IsLoading)
	assert.True(t, m.Check(ctx, "/api/users").Allow)

	close(auth.release)
	require.Eventually(t, func() bool { return m.GuardState() == Unauthenticated }, time.Second, 5*time.Millisecond)

	stored, err := NewProvider(kv).GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored, "invalid session must be cleared")

	d := m.Check(ctx, "/api/assistants?userId=u1")
	assert.False(t, d.Allow)
	assert.Equal(t, "/login?redirect=%2Fapi%2Fassistants%3FuserId%3Du1", d.Redirect)
}

func TestManager_VerifyingWithoutLocalSession(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyAuthToken, "token-without-profile"))

	auth := &stubAuth{release: make(chan struct{}), profile: &domain.AdminProfile{ID: "a1", Email: "ops@example.com"}}
	m := NewManager(ctx, kv, auth)
	assert.Equal(t, Verifying, m.GuardState())

	require.NoError(t, m.Start(ctx))
	assert.True(t, m.Status().IsLoading)

	close(auth.release)
	d := m.Check(ctx, "/api/users")
	assert.True(t, d.Allow)
	assert.Equal(t, Authenticated, m.GuardState())
}

func TestManager_LoginLogout(t *testing.T) {
	ctx := context.Background()
	m := NewManager(ctx, newMemoryKV(), &stubAuth{})
	assert.Equal(t, Verifying, m.GuardState())

	_, err := m.Login(ctx, domain.LoginRequest{Email: "ops@example.com", Password: "nope"})
	require.Error(t, err)

	profile, err := m.Login(ctx, domain.LoginRequest{Email: "ops@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", profile.Email)
	assert.Equal(t, Authenticated, m.GuardState())
	assert.Equal(t, "tok", m.Token(ctx))

	require.NoError(t, m.Logout(ctx))
	assert.Equal(t, Unauthenticated, m.GuardState())
	assert.Empty(t, m.Token(ctx))
}

func TestFileStore_PersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := NewFileStore(path, 10*time.Millisecond)
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []string
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	require.NoError(t, store.Watch(wctx, func(key string) {
		mu.Lock()
		seen = append(seen, key)
		mu.Unlock()
	}))

	require.NoError(t, store.Set(ctx, KeyAuthToken, "abc"))
	v, ok, err := store.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	other, err := NewFileStore(path, time.Hour)
	require.NoError(t, err)
	v, ok, err = other.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, store.Delete(ctx, KeyAuthToken))
	_, ok, err = other.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.False(t, ok)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{KeyAuthToken, KeyAuthToken}, seen)
}

func TestPreferences_SidebarSurvivesClearSession(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	prefs := NewPreferences(kv)

	collapsed, err := prefs.SidebarCollapsed(ctx)
	require.NoError(t, err)
	assert.False(t, collapsed)

	require.NoError(t, prefs.SetSidebarCollapsed(ctx, true))
	require.NoError(t, NewProvider(kv).ClearSession(ctx))

	collapsed, err = prefs.SidebarCollapsed(ctx)
	require.NoError(t, err)
	assert.True(t, collapsed)
}

// refreshingAuth accepts only "tok-2", which it hands out for refresh token "ref-1".
type refreshingAuth struct {
	provider  *StoreProvider
	refreshed []string
}

func (a *refreshingAuth) Verify(ctx context.Context) (*domain.AdminProfile, error) {
	if a.provider.Token(ctx) != "tok-2" {
		return nil, &apihttp.APIError{StatusCode: 401, Message: "token expired"}
	}
	return &domain.AdminProfile{ID: "a1", Email: "ops@example.com"}, nil
}

func (a *refreshingAuth) Refresh(_ context.Context, refreshToken string) (*domain.LoginResult, error) {
	a.refreshed = append(a.refreshed, refreshToken)
	if refreshToken != "ref-1" {
		return nil, &apihttp.APIError{StatusCode: 401, Message: "refresh token revoked"}
	}
	return &domain.LoginResult{Token: "tok-2", RefreshToken: "ref-2"}, nil
}

func TestAuthStore_RefreshesRejectedToken(t *testing.T) {
	ctx := context.Background()
	provider := NewProvider(newMemoryKV())
	profile := &domain.AdminProfile{ID: "a1", Email: "ops@example.com"}
	require.NoError(t, provider.SetSession(ctx, &domain.AuthSession{Token: "tok-1", RefreshToken: "ref-1", Profile: profile}))

	auth := &refreshingAuth{provider: provider}
	store := NewAuthStore(provider, auth)
	require.NoError(t, store.Verify(ctx))

	assert.True(t, store.State().Authenticated)
	assert.Equal(t, []string{"ref-1"}, auth.refreshed)
	stored, err := provider.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "tok-2", stored.Token)
	assert.Equal(t, "ref-2", stored.RefreshToken)
	assert.Equal(t, "ops@example.com", stored.Profile.Email)
}

func TestAuthStore_FailedRefreshClearsSession(t *testing.T) {
	ctx := context.Background()
	provider := NewProvider(newMemoryKV())
	require.NoError(t, provider.SetSession(ctx, &domain.AuthSession{
		Token: "tok-1", RefreshToken: "stale", Profile: &domain.AdminProfile{ID: "a1"},
	}))

	auth := &refreshingAuth{provider: provider}
	store := NewAuthStore(provider, auth)
	err := store.Verify(ctx)
	require.Error(t, err)
	assert.True(t, apihttp.IsUnauthorized(err))
	assert.Equal(t, []string{"stale"}, auth.refreshed)

	assert.False(t, store.State().Authenticated)
	stored, err := provider.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
}
