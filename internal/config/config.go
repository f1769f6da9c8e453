package config

import (
	"time"

	"github.com/ClareAI/astra-voice-admin/pkg/pubsub"
)

// Config holds the application configuration
type Config struct {
	Env            string
	Port           string
	EnableCORS     bool
	AllowedOrigins []string
	CacheStale     time.Duration
	VerifyWait     time.Duration
	API            APIServiceConfig
	Session        SessionConfig
	// Audit is nil when console writes are not published.
	Audit *pubsub.PubSubConfig
}

// AppConfig holds the current configuration
var AppConfig Config

// LoadConfig loads configuration from environment variables.
// The .env file is loaded in main via godotenv before this runs.
func LoadConfig() Config {
	cfg := Config{
		Env:            getEnv("LOG_ENV", "development"),
		Port:           getEnv("PORT", "8090"),
		EnableCORS:     getEnvAsBool("ENABLE_CORS", true),
		AllowedOrigins: []string{"*"},
		CacheStale:     getEnvAsDuration("QUERY_CACHE_STALE", 30*time.Second),
		VerifyWait:     getEnvAsDuration("SESSION_VERIFY_WAIT", 10*time.Second),
		API:            LoadAPIServiceConfig(),
		Session:        LoadSessionConfig(),
		Audit:          LoadAuditConfig(),
	}
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitString(origins, ",")
	}
	AppConfig = cfg
	return cfg
}

// GetConfig returns the current configuration
func GetConfig() Config {
	return AppConfig
}
