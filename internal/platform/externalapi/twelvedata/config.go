// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds configuration for the Twelve Data API client.
// Values are read from TWELVE_DATA_* environment variables.
type Config struct {
	APIKey   string        `envconfig:"API_KEY" required:"true"`
	BaseURL  string        `envconfig:"BASE_URL" default:"https://api.twelvedata.com"`
	Exchange string        `envconfig:"EXCHANGE" default:"KRX"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s"`
	// RateLimit is the number of requests allowed per minute (free plan: 8).
	RateLimit int `envconfig:"RATE_LIMIT" default:"8"`
}

// LoadConfig loads Twelve Data configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("TWELVE_DATA", &cfg); err != nil {
		return Config{}, fmt.Errorf("load twelve data config: %w", err)
	}
	if cfg.APIKey == "" {
		return Config{}, errors.New("load twelve data config: TWELVE_DATA_API_KEY is empty")
	}
	return cfg, nil
}
