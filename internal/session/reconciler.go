package session

import (
	"context"
	"sync"
	"time"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

// Status is the reconciled auth signal consumed by the route guard.
type Status struct {
	IsAuthenticated bool
	IsLoading       bool
	ValidLocal      bool
	Profile         *domain.AdminProfile
}

// Reconcile merges the store state with the local session check.
// A valid local session counts as authenticated and suppresses loading.
func Reconcile(state AuthState, local *domain.AuthSession, now time.Time) Status {
	validLocal := ValidLocalSession(local, now)
	status := Status{
		IsAuthenticated: state.Authenticated || validLocal,
		IsLoading:       state.Loading && !validLocal,
		ValidLocal:      validLocal,
		Profile:         state.Profile,
	}
	if status.Profile == nil && validLocal {
		status.Profile = local.Profile
	}
	return status
}

// Reconciler keeps a current Status, re-evaluated on store changes and on
// storage change events.
type Reconciler struct {
	store    *AuthStore
	provider Provider
	now      func() time.Time

	mu        sync.RWMutex
	current   Status
	listeners []func(Status)
}

// NewReconciler creates a reconciler and evaluates it once.
func NewReconciler(ctx context.Context, store *AuthStore, provider Provider) *Reconciler {
	r := &Reconciler{store: store, provider: provider, now: time.Now}
	r.Evaluate(ctx)
	store.Subscribe(func(AuthState) { r.Evaluate(context.Background()) })
	return r
}

// SetClock overrides the time source used for token expiry.
func (r *Reconciler) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Evaluate recomputes the status from the store and the persisted session.
func (r *Reconciler) Evaluate(ctx context.Context) Status {
	local, err := r.provider.GetSession(ctx)
	if err != nil {
		logger.Warn(ctx, "failed to read local session", zap.Error(err))
		local = nil
	}

	r.mu.Lock()
	status := Reconcile(r.store.State(), local, r.now())
	r.current = status
	listeners := append([]func(Status){}, r.listeners...)
	r.mu.Unlock()

	for _, l := range listeners {
		l(status)
	}
	return status
}

// Status returns the last evaluated status.
func (r *Reconciler) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// OnChange registers fn to be called after every evaluation.
func (r *Reconciler) OnChange(fn func(Status)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Watch re-evaluates on every change event from kv until ctx ends.
func (r *Reconciler) Watch(ctx context.Context, kv KVStore) error {
	return kv.Watch(ctx, func(key string) {
		switch key {
		case "", KeyAuthToken, KeyRefreshToken, KeyAdminUser:
			r.Evaluate(ctx)
		}
	})
}
