// Package config handles configuration for the development backend,
// including defaults, a JSON or YAML file overlay, and command-line flags.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings of the backend.
//
// Fields:
//   - EndpointAddr: bind address of the REST API.
//   - DatabaseDSN: SQLite DSN; the default keeps everything in memory.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - OTPValidityDuration: lifetime of a login code.
//   - LinkValidityDuration: lifetime of verification and reset links.
//   - FixedOTP: when set, every login code equals it; otherwise codes are random.
//   - PublicURL: base of the links put into outgoing mail.
//   - RateLimit / RateBurst: per-client request throttle.
//   - SeedDemoUsers: create verified demo accounts on start.
//   - LogLevel / LogFormat: slog level and "json" or "text".
type Config struct {
	EndpointAddr                 string
	DatabaseDSN                  string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	OTPValidityDuration          time.Duration
	LinkValidityDuration         time.Duration
	FixedOTP                     string
	PublicURL                    string
	RateLimit                    float64
	RateBurst                    int
	SeedDemoUsers                bool
	LogLevel                     string
	LogFormat                    string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = "file::memory:"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.OTPValidityDuration = 15 * time.Minute
	c.LinkValidityDuration = 24 * time.Hour
	c.PublicURL = "http://localhost:5173"
	c.RateLimit = 20
	c.RateBurst = 40
	c.SeedDemoUsers = true
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig over an explicit argument list.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
