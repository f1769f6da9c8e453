package config

import (
	"os"
	"time"

	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"go.uber.org/zap"
)

// APIServiceConfig holds the admin API client configuration
type APIServiceConfig struct {
	APIServiceURL   string
	Timeout         time.Duration
	RateLimitPerSec float64
	RateLimitBurst  int
}

// DefaultAPIServiceConfig holds the default API service configuration values
var DefaultAPIServiceConfig = APIServiceConfig{
	APIServiceURL:   "http://localhost:8001",
	Timeout:         30 * time.Second,
	RateLimitPerSec: 20,
	RateLimitBurst:  40,
}

// LoadAPIServiceConfig loads API service configuration from environment variables
func LoadAPIServiceConfig() APIServiceConfig {
	config := DefaultAPIServiceConfig
	config.Timeout = getEnvAsDuration("ADMIN_API_TIMEOUT", config.Timeout)
	config.RateLimitPerSec = getEnvAsFloat("ADMIN_API_RATE_LIMIT", config.RateLimitPerSec)
	config.RateLimitBurst = getEnvAsInt("ADMIN_API_RATE_BURST", config.RateLimitBurst)

	for _, key := range []string{"ADMIN_API_BASE_URL", "ASTRA_API_SERVICE_INTERNAL_ENDPOINT", "API_SERVICE_URL"} {
		if endpoint := os.Getenv(key); endpoint != "" {
			config.APIServiceURL = endpoint
			return config
		}
	}

	logger.Base().Warn("No API service endpoint found in environment, using default", zap.String("url", config.APIServiceURL))
	return config
}
