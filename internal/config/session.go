package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ClareAI/astra-voice-admin/pkg/redis"
)

// Session store backends.
const (
	SessionStoreFile  = "file"
	SessionStoreRedis = "redis"
)

// SessionConfig selects where the operator session is persisted.
type SessionConfig struct {
	Store        string
	FilePath     string
	PollInterval time.Duration
	Namespace    string
	Redis        *redis.RedisConfig
}

// DefaultSessionPath is ~/.astra-admin/session.json, or a relative path when
// the home directory is unknown.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".astra-admin", "session.json")
	}
	return filepath.Join(home, ".astra-admin", "session.json")
}

// LoadSessionConfig loads session storage configuration from environment variables
func LoadSessionConfig() SessionConfig {
	return SessionConfig{
		Store:        getEnv("SESSION_STORE", SessionStoreFile),
		FilePath:     getEnv("SESSION_FILE", DefaultSessionPath()),
		PollInterval: getEnvAsDuration("SESSION_POLL_INTERVAL", 2*time.Second),
		Namespace:    getEnv("SESSION_NAMESPACE", "default"),
		Redis: &redis.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}
}
