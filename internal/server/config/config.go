// Package config handles configuration for the identity server,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the identity server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - MetricsAddr: bind address for the Prometheus /metrics endpoint; empty disables it.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory stores.
//   - SecretKey: HMAC secret for signing access tokens (HS256). Loaded once.
//   - AccessTokenValidityDuration: access token lifetime, configured in minutes.
//   - BcryptCost: work factor for password hashes.
//   - LogLevel: debug, info, warn or error.
//   - DefaultRole: role granted to every newly registered user.
//   - AdminRole: role whose members cannot be deactivated; only its members may grant or revoke it.
type Config struct {
	EndpointAddrGRPC            string
	MetricsAddr                 string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	BcryptCost                  int
	LogLevel                    string
	DefaultRole                 string
	AdminRole                   string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey is left empty on purpose; the server refuses to start
// until one is configured.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.MetricsAddr = ":9090"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.BcryptCost = bcrypt.DefaultCost
	c.LogLevel = "info"
	c.DefaultRole = "Basic"
	c.AdminRole = "Administrator"
}

// Validate reports configuration that would make the token engine unusable.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("secret key must be configured")
	}
	if c.AccessTokenValidityDuration <= 0 {
		return errors.New("access token validity must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return errors.New("bcrypt cost out of range")
	}
	if c.DefaultRole == "" {
		return errors.New("default role must be configured")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
