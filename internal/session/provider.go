package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClareAI/astra-voice-admin/internal/domain"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Provider is the single persistence point for the operator session.
type Provider interface {
	GetSession(ctx context.Context) (*domain.AuthSession, error)
	SetSession(ctx context.Context, s *domain.AuthSession) error
	ClearSession(ctx context.Context) error
}

// StoreProvider implements Provider on top of a KVStore.
type StoreProvider struct {
	kv KVStore
}

// NewProvider creates a session provider over kv.
func NewProvider(kv KVStore) *StoreProvider {
	return &StoreProvider{kv: kv}
}

// GetSession returns the persisted session, or nil when no token is stored.
// An unreadable profile record is treated as absent.
func (p *StoreProvider) GetSession(ctx context.Context) (*domain.AuthSession, error) {
	token, ok, err := p.kv.Get(ctx, KeyAuthToken)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" {
		return nil, nil
	}

	s := &domain.AuthSession{Token: token}

	if refresh, ok, err := p.kv.Get(ctx, KeyRefreshToken); err != nil {
		return nil, err
	} else if ok {
		s.RefreshToken = refresh
	}

	raw, ok, err := p.kv.Get(ctx, KeyAdminUser)
	if err != nil {
		return nil, err
	}
	if ok && raw != "" {
		var profile domain.AdminProfile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			logger.Warn(ctx, "ignoring unreadable cached admin profile", zap.Error(err))
		} else {
			s.Profile = &profile
		}
	}
	return s, nil
}

// SetSession persists token, refresh token and profile.
func (p *StoreProvider) SetSession(ctx context.Context, s *domain.AuthSession) error {
	if s == nil || s.Token == "" {
		return fmt.Errorf("session token is required")
	}
	if err := p.kv.Set(ctx, KeyAuthToken, s.Token); err != nil {
		return err
	}
	if s.RefreshToken != "" {
		if err := p.kv.Set(ctx, KeyRefreshToken, s.RefreshToken); err != nil {
			return err
		}
	}
	if s.Profile != nil {
		raw, err := json.Marshal(s.Profile)
		if err != nil {
			return fmt.Errorf("failed to encode admin profile: %w", err)
		}
		if err := p.kv.Set(ctx, KeyAdminUser, string(raw)); err != nil {
			return err
		}
	}
	return nil
}

// Token returns the stored bearer token, or "" when signed out. It lets the
// provider serve as the API client's token source.
func (p *StoreProvider) Token(ctx context.Context) string {
	token, ok, err := p.kv.Get(ctx, KeyAuthToken)
	if err != nil || !ok {
		return ""
	}
	return token
}

// ClearSession removes every session artifact. UI preferences are kept.
func (p *StoreProvider) ClearSession(ctx context.Context) error {
	return p.kv.Delete(ctx, KeyAuthToken, KeyRefreshToken, KeyAdminUser)
}

// ValidLocalSession reports whether s can stand in for a verified session:
// a token and a cached profile are present and, if the token is a JWT with an
// exp claim, it has not expired. The signature is not checked.
func ValidLocalSession(s *domain.AuthSession, now time.Time) bool {
	if s == nil || s.Token == "" || s.Profile == nil {
		return false
	}
	return !tokenExpired(s.Token, now)
}

func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque tokens carry no expiry we can read.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
