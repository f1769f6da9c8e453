package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/ClareAI/astra-voice-admin/pkg/redis"
	"go.uber.org/zap"
)

// RedisStore keeps the session keys in Redis under one namespace and
// broadcasts every change on a pub/sub channel so that all consoles sharing
// the namespace re-evaluate their session.
type RedisStore struct {
	redis     redis.RedisServiceInterface
	namespace string
}

type changeEvent struct {
	Key string `json:"key"`
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(svc redis.RedisServiceInterface, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "default"
	}
	return &RedisStore{redis: svc, namespace: namespace}
}

func (s *RedisStore) key(k string) string {
	return s.redis.GenerateKey(redis.SESSION_STORE, s.namespace+":"+k)
}

func (s *RedisStore) channel() string {
	return s.redis.GenerateKey(redis.SESSION_EVENTS, s.namespace)
}

// Get implements KVStore
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.redis.GetValue(ctx, s.key(key))
	if redis.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session key %s: %w", key, err)
	}
	return v, true, nil
}

// Set implements KVStore
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.redis.SetValue(ctx, s.key(key), value, 0); err != nil {
		return fmt.Errorf("failed to write session key %s: %w", key, err)
	}
	s.publish(ctx, key)
	return nil
}

// Delete implements KVStore
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(k))
	}
	if err := s.redis.DelValue(ctx, full...); err != nil {
		return fmt.Errorf("failed to delete session keys: %w", err)
	}
	for _, k := range keys {
		s.publish(ctx, k)
	}
	return nil
}

// Watch implements KVStore
func (s *RedisStore) Watch(ctx context.Context, fn func(key string)) error {
	return s.redis.Subscribe(ctx, s.channel(), func(payload string) {
		var ev changeEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			fn("")
			return
		}
		fn(ev.Key)
	})
}

func (s *RedisStore) publish(ctx context.Context, key string) {
	if err := s.redis.Publish(ctx, s.channel(), changeEvent{Key: key}); err != nil {
		logger.Warn(ctx, "failed to publish session change", zap.String("key", key), zap.Error(err))
	}
}
