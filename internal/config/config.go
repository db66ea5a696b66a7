// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML config file, and environment variables (highest priority).
//
// Configuration Categories:
//
//  1. Data: location of the case-count CSV and the district-boundary GeoJSON.
//  2. Server: HTTP server settings (host, port, timeouts).
//  3. Security: token signing, admin credentials, blacklist persistence,
//     rate limiting, CORS.
//  4. Logging: log level and output format.
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Data     DataConfig     `koanf:"data"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DataConfig describes the static data sources. The files are read exactly
// once, on the first request that needs them.
type DataConfig struct {
	// Dir is the directory holding both source files.
	Dir string `koanf:"dir"`

	// CasesFile is the case-count CSV file name, relative to Dir.
	CasesFile string `koanf:"cases_file"`

	// GeoJSONFile is the district-boundary GeoJSON file name, relative to Dir.
	GeoJSONFile string `koanf:"geojson_file"`

	// Preload forces the data bundle to be built at startup instead of on
	// the first request, so configuration problems surface immediately.
	Preload bool `koanf:"preload"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig holds authentication and request-protection configuration.
type SecurityConfig struct {
	// SecretKey signs access tokens (HMAC-SHA256).
	SecretKey string `koanf:"secret_key"`

	// TokenExpireMinutes is the access token lifetime in minutes.
	TokenExpireMinutes int `koanf:"token_expire_minutes"`

	// BlacklistFile is the append-only revocation log, one token per line.
	BlacklistFile string `koanf:"blacklist_file"`

	// AdminEmail and AdminPassword form the single valid credential pair.
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// TokenTTL returns the configured token lifetime as a duration.
func (s SecurityConfig) TokenTTL() time.Duration {
	return time.Duration(s.TokenExpireMinutes) * time.Minute
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would prevent the
// service from operating. It is called by LoadWithKoanf after all layers
// are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Security.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required but was empty")
	}
	if c.Security.TokenExpireMinutes <= 0 {
		return fmt.Errorf("token expiry must be positive, got %d minutes", c.Security.TokenExpireMinutes)
	}
	if c.Security.AdminEmail == "" || c.Security.AdminPassword == "" {
		return fmt.Errorf("admin credentials must be configured")
	}
	if c.Security.BlacklistFile == "" {
		return fmt.Errorf("blacklist file path must be configured")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data directory must be configured")
	}
	if c.Data.CasesFile == "" || c.Data.GeoJSONFile == "" {
		return fmt.Errorf("data file names must be configured")
	}
	if c.Security.RateLimitReqs <= 0 && !c.Security.RateLimitDisabled {
		return fmt.Errorf("rate limit requests must be positive, got %d", c.Security.RateLimitReqs)
	}
	return nil
}
