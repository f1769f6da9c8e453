package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ClareAI/astra-voice-admin/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis is an in-memory RedisServiceInterface with synchronous pub/sub.
type fakeRedis struct {
	mu       sync.Mutex
	values   map[string]string
	handlers map[string][]func(string)
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, handlers: map[string][]func(string){}}
}

func (f *fakeRedis) GenerateKey(keyType redis.KeyType, identifier string) string {
	return fmt.Sprintf("%s:%s", keyType, identifier)
}

func (f *fakeRedis) GetValue(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", redis.ErrKeyNotExist
	}
	return v, nil
}

func (f *fakeRedis) SetValue(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeRedis) DelValue(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	f.mu.Lock()
	hs := append([]func(string){}, f.handlers[channel]...)
	f.mu.Unlock()
	for _, h := range hs {
		h(string(data))
	}
	return nil
}

func (f *fakeRedis) Subscribe(_ context.Context, channel string, handler func(string)) error {
	f.mu.Lock()
	f.handlers[channel] = append(f.handlers[channel], handler)
	f.mu.Unlock()
	return nil
}

func TestRedisStore_SharedNamespaceSeesChanges(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	tabA := NewRedisStore(rdb, "ops")
	tabB := NewRedisStore(rdb, "ops")
	other := NewRedisStore(rdb, "other")

	var seen []string
	require.NoError(t, tabB.Watch(ctx, func(key string) { seen = append(seen, key) }))

	require.NoError(t, tabA.Set(ctx, KeyAuthToken, "t1"))
	v, ok, err := tabB.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t1", v)

	_, ok, err = other.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tabA.Delete(ctx, KeyAuthToken, KeyAdminUser))
	assert.Equal(t, []string{KeyAuthToken, KeyAuthToken, KeyAdminUser}, seen)
	assert.NotContains(t, rdb.values, "astra_admin_session:ops:"+KeyAuthToken)
}

func TestRedisStore_SignOutInOneConsoleSignsOutTheOther(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	auth := &stubAuth{}

	first := NewManager(ctx, NewRedisStore(rdb, "ops"), auth)
	second := NewManager(ctx, NewRedisStore(rdb, "ops"), auth)
	require.NoError(t, first.Start(ctx))
	require.NoError(t, second.Start(ctx))

	_, err := first.Login(ctx, loginOK())
	require.NoError(t, err)
	assert.True(t, second.Status().IsAuthenticated, "second console picks up the stored session")

	require.NoError(t, first.Logout(ctx))
	assert.False(t, second.Status().IsAuthenticated)
	assert.Equal(t, Unauthenticated, second.GuardState())
}
