package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the jobportal CLI.
//
// Fields:
//   - APIBaseURL: base URL of the backend REST API; endpoint paths are appended to it.
//   - DatabaseDSN: SQLite DSN of the durable session storage.
//   - RequestTimeout: upper bound for a single outbound request.
//   - OnlineCheckInterval: how often the client checks backend reachability.
//   - RateLimit / RateBurst: client-side throttle of outbound requests.
//   - OTPDuration: lifetime of an OTP challenge before resend is allowed.
//   - MockOTP: verify OTP codes locally with canned data instead of the backend.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL          string
	DatabaseDSN         string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	RateLimit           float64
	RateBurst           int
	OTPDuration         time.Duration
	MockOTP             bool
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080/api"
	c.DatabaseDSN = "jobportal.db"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.RateLimit = 10
	c.RateBurst = 20
	c.OTPDuration = 900 * time.Second
	c.MockOTP = true
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then the environment (.env
// included), then the config file named by -c/-config, then flags. Later
// sources take precedence.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig over an explicit argument list.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, ".env"); err != nil {
		return nil, err
	}
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
