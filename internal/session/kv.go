package session

import "context"

// KVStore is the persistent key-value substrate the session lives in.
// Watch reports keys changed by this process or any other process sharing
// the store; an empty key means "something changed".
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Watch(ctx context.Context, fn func(key string)) error
}

// Fixed storage keys.
const (
	KeyAuthToken        = "auth_token"
	KeyRefreshToken     = "refresh_token"
	KeyAdminUser        = "admin_user"
	KeySidebarCollapsed = "sidebar_collapsed"
)
