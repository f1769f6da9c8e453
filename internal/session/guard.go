package session

import (
	"context"
	"net/url"
	"sync"

	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

// GuardState is the route guard's state.
type GuardState int

const (
	Verifying GuardState = iota
	Authenticated
	Unauthenticated
)

func (s GuardState) String() string {
	switch s {
	case Verifying:
		return "verifying"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// LoginPath is where unauthenticated requests are redirected.
const LoginPath = "/login"

// Decision is the outcome of a guard check.
type Decision struct {
	State    GuardState
	Allow    bool
	Redirect string
}

// Guard is the route guard state machine driven by reconciled statuses.
type Guard struct {
	mu    sync.Mutex
	state GuardState
}

// NewGuard creates a guard whose initial state is Authenticated when a valid
// local session is cached and Verifying otherwise.
func NewGuard(initial Status) *Guard {
	g := &Guard{state: Verifying}
	if initial.ValidLocal {
		g.state = Authenticated
	}
	return g
}

// State returns the current state.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Apply moves the guard according to status and returns the new state.
func (g *Guard) Apply(ctx context.Context, status Status) GuardState {
	next := Unauthenticated
	switch {
	case status.IsAuthenticated:
		next = Authenticated
	case status.IsLoading:
		next = Verifying
	}

	g.mu.Lock()
	prev := g.state
	g.state = next
	g.mu.Unlock()

	if prev != next {
		logger.Info(ctx, "route guard transition",
			zap.String("from", prev.String()),
			zap.String("to", next.String()),
		)
	}
	return next
}

// Check decides whether path may be served in the current state.
func (g *Guard) Check(path string) Decision {
	state := g.State()
	switch state {
	case Authenticated:
		return Decision{State: state, Allow: true}
	case Verifying:
		return Decision{State: state}
	default:
		return Decision{State: state, Redirect: LoginRedirect(path)}
	}
}

// LoginRedirect builds the login URL preserving the originally requested path.
func LoginRedirect(path string) string {
	if path == "" || path == LoginPath {
		return LoginPath
	}
	return LoginPath + "?redirect=" + url.QueryEscape(path)
}
