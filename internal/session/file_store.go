package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

// FileStore keeps the session keys in one JSON file. Other processes writing
// the same file are detected by polling its modification time.
type FileStore struct {
	path         string
	pollInterval time.Duration

	mu        sync.Mutex
	modTime   time.Time
	listeners []func(string)
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(path string, pollInterval time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	s := &FileStore{path: path, pollInterval: pollInterval}
	if info, err := os.Stat(path); err == nil {
		s.modTime = info.ModTime()
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode session file: %w", err)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		s.modTime = info.ModTime()
	}
	return nil
}

// Get implements KVStore
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set implements KVStore
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	values, err := s.load()
	if err == nil {
		values[key] = value
		err = s.save(values)
	}
	listeners := append([]func(string){}, s.listeners...)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	notify(listeners, key)
	return nil
}

// Delete implements KVStore
func (s *FileStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	values, err := s.load()
	if err == nil {
		for _, k := range keys {
			delete(values, k)
		}
		err = s.save(values)
	}
	listeners := append([]func(string){}, s.listeners...)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, k := range keys {
		notify(listeners, k)
	}
	return nil
}

// Watch registers fn for local writes and starts polling for external ones until ctx ends.
func (s *FileStore) Watch(ctx context.Context, fn func(key string)) error {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.changedExternally() {
					logger.Debug(ctx, "session file changed externally", zap.String("path", s.path))
					fn("")
				}
			}
		}
	}()
	return nil
}

func (s *FileStore) changedExternally() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, err := os.Stat(s.path)
	if err != nil {
		if !s.modTime.IsZero() {
			s.modTime = time.Time{}
			return true
		}
		return false
	}
	if !info.ModTime().Equal(s.modTime) {
		s.modTime = info.ModTime()
		return true
	}
	return false
}

func notify(listeners []func(string), key string) {
	for _, l := range listeners {
		l(key)
	}
}
