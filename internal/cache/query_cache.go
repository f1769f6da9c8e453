package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Query keys shared by the services.
const (
	KeyUsers       = "users"
	KeyAssistants  = "assistants"
	KeyVoices      = "voices"
	KeyAssignments = "voice-assignments"
)

// UserKey is the key of a single user record.
func UserKey(id string) string { return KeyUsers + ":" + id }

// AssistantKey is the key of a single assistant record.
func AssistantKey(id string) string { return KeyAssistants + ":" + id }

// AssistantsByUserKey is the key of one owner's assistant list.
func AssistantsByUserKey(userID string) string { return KeyAssistants + ":user:" + userID }

// VoiceKey is the key of a single catalog voice.
func VoiceKey(id string) string { return KeyVoices + ":" + id }

// AssignmentsByUserKey is the key of one user's voice assignments.
func AssignmentsByUserKey(userID string) string { return KeyAssignments + ":user:" + userID }

type entry struct {
	data      interface{}
	fetchedAt time.Time
	stale     bool
}

// QueryCache is a keyed cache of server query results. Values go in and come
// out as deep copies so callers never alias cached data.
type QueryCache struct {
	entries    map[string]*entry
	mutex      sync.RWMutex
	staleAfter time.Duration
	now        func() time.Time
	inflight   singleflight.Group
}

// NewQueryCache creates a cache. Entries older than staleAfter are refetched;
// zero keeps entries until they are invalidated.
func NewQueryCache(staleAfter time.Duration) *QueryCache {
	return &QueryCache{
		entries:    make(map[string]*entry),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (c *QueryCache) fresh(e *entry) bool {
	if e.stale {
		return false
	}
	return c.staleAfter <= 0 || c.now().Sub(e.fetchedAt) < c.staleAfter
}

// Get returns a copy of the cached value for key, fresh or not.
func Get[T any](c *QueryCache, key string) (T, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	v, ok := e.data.(T)
	if !ok {
		return zero, false
	}
	return clone(v), true
}

// Set stores a copy of value under key and marks it fresh.
func Set[T any](c *QueryCache, key string, value T) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = &entry{data: clone(value), fetchedAt: c.now()}
}

// Fetch returns the cached value when fresh and otherwise calls fetch and
// caches its result. Concurrent misses on one key share a single fetch.
// Failed fetches leave the existing entry untouched.
func Fetch[T any](ctx context.Context, c *QueryCache, key string, fetch func(context.Context) (T, error)) (T, error) {
	c.mutex.RLock()
	e, ok := c.entries[key]
	if ok && c.fresh(e) {
		if v, typed := e.data.(T); typed {
			c.mutex.RUnlock()
			return clone(v), nil
		}
	}
	c.mutex.RUnlock()

	res, err, shared := c.inflight.Do(key, func() (interface{}, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		Set(c, key, v)
		return v, nil
	})
	var zero T
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("cache key %q holds %T", key, res)
	}
	if shared {
		return clone(v), nil
	}
	return v, nil
}

// Invalidate marks keys stale so the next Fetch goes to the server.
func (c *QueryCache) Invalidate(keys ...string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, k := range keys {
		if e, ok := c.entries[k]; ok {
			e.stale = true
		}
	}
	logger.Base().Debug("cache keys invalidated", zap.Strings("keys", keys))
}

// InvalidatePrefix marks stale every key equal to prefix or starting with prefix+":".
func (c *QueryCache) InvalidatePrefix(prefix string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	n := 0
	for k, e := range c.entries {
		if k == prefix || strings.HasPrefix(k, prefix+":") {
			e.stale = true
			n++
		}
	}
	logger.Base().Debug("cache prefix invalidated", zap.String("prefix", prefix), zap.Int("entries", n))
}

// Remove drops keys entirely.
func (c *QueryCache) Remove(keys ...string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
}

// Stale reports whether key is absent or needs refetching.
func (c *QueryCache) Stale(key string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	e, ok := c.entries[key]
	return !ok || !c.fresh(e)
}

// Optimistic applies a provisional change to the cached value at key, then
// runs commit. If commit fails the entry is restored to its snapshot and the
// error returned; on success key is invalidated so the server state is
// refetched. A key with no cached value just commits.
//
// Two overlapping optimistic updates of the same key are not reconciled: the
// later rollback restores the snapshot it took.
func Optimistic[T any](ctx context.Context, c *QueryCache, key string, apply func(T) T, commit func(context.Context) error) error {
	c.mutex.Lock()
	prev, had := c.entries[key]
	var snapshot entry
	if had {
		snapshot = *prev
		if v, ok := prev.data.(T); ok {
			c.entries[key] = &entry{data: apply(clone(v)), fetchedAt: prev.fetchedAt, stale: prev.stale}
		}
	}
	c.mutex.Unlock()

	if err := commit(ctx); err != nil {
		if had {
			c.mutex.Lock()
			c.entries[key] = &snapshot
			c.mutex.Unlock()
			logger.Info(ctx, "optimistic update rolled back", zap.String("key", key), zap.Error(err))
		}
		return err
	}

	c.Invalidate(key)
	return nil
}

// deepCopy copies src into dst without sharing slices, maps or pointers.
var deepCopy = func(dst, src interface{}) error {
	return copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true})
}

// clone falls back to a JSON round trip when copier fails. Only if both fail
// is v returned as is.
func clone[T any](v T) T {
	var out T
	err := deepCopy(&out, &v)
	if err == nil {
		return out
	}
	logger.Base().Error("failed to deep-copy cache entry", zap.String("type", fmt.Sprintf("%T", v)), zap.Error(err))

	var fallback T
	raw, err := json.Marshal(v)
	if err == nil {
		err = json.Unmarshal(raw, &fallback)
	}
	if err != nil {
		logger.Base().Error("cache entry returned without copy", zap.Error(err))
		return v
	}
	return fallback
}
