// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/pageforge/pageforge/internal/model"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"PAGEFORGE_DB_PATH" envDefault:"./data/pageforge.db"`
	ServerHost string `env:"PAGEFORGE_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"PAGEFORGE_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"PAGEFORGE_ENV" envDefault:"development"`
	LogLevel   string `env:"PAGEFORGE_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"PAGEFORGE_REDIS_URL"`                          // Optional Redis URL for distributed caching
	CachePrefix  string `env:"PAGEFORGE_CACHE_PREFIX" envDefault:"pf:"`      // Redis key prefix
	CacheTTL     int    `env:"PAGEFORGE_CACHE_TTL" envDefault:"300"`         // Default cache TTL in seconds
	CacheMaxSize int    `env:"PAGEFORGE_CACHE_MAX_SIZE" envDefault:"10000"`  // Max memory cache entries

	// Scheduler configuration
	SchedulerEnabled bool `env:"PAGEFORGE_SCHEDULER_ENABLED" envDefault:"true"` // Run scheduled publish/promotion jobs

	// Webhook configuration
	WebhookSecret  string `env:"PAGEFORGE_WEBHOOK_SECRET"`                   // HMAC signing secret for deliveries
	WebhookWorkers int    `env:"PAGEFORGE_WEBHOOK_WORKERS" envDefault:"4"`   // Delivery worker count

	// API configuration
	RateLimitRPS   float64 `env:"PAGEFORGE_RATE_LIMIT_RPS" envDefault:"20"` // Per-client requests per second
	RateLimitBurst int     `env:"PAGEFORGE_RATE_LIMIT_BURST" envDefault:"40"`

	// Seeding configuration
	DoSeed bool `env:"PAGEFORGE_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		return nil, model.NewValidationError("PAGEFORGE_SERVER_PORT out of range: %d", cfg.ServerPort)
	}
	if cfg.WebhookWorkers < 1 {
		cfg.WebhookWorkers = 1
	}
	if cfg.RateLimitRPS <= 0 {
		return nil, model.NewValidationError("PAGEFORGE_RATE_LIMIT_RPS must be positive")
	}

	return cfg, nil
}
