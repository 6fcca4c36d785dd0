package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/jobportal/internal/flagx"
	"github.com/dmitrijs2005/jobportal/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used only for decoding config files. Duration fields
// use timex.Duration, which accepts both "1m" strings and integer
// nanoseconds. Pointer fields keep absent keys from clearing defaults.
type FileConfig struct {
	EndpointAddr                 *string         `json:"endpoint_addr" yaml:"endpoint_addr"`
	DatabaseDSN                  *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    *string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	OTPValidityDuration          *timex.Duration `json:"otp_validity_duration" yaml:"otp_validity_duration"`
	LinkValidityDuration         *timex.Duration `json:"link_validity_duration" yaml:"link_validity_duration"`
	FixedOTP                     *string         `json:"fixed_otp" yaml:"fixed_otp"`
	PublicURL                    *string         `json:"public_url" yaml:"public_url"`
	RateLimit                    *float64        `json:"rate_limit" yaml:"rate_limit"`
	RateBurst                    *int            `json:"rate_burst" yaml:"rate_burst"`
	SeedDemoUsers                *bool           `json:"seed_demo_users" yaml:"seed_demo_users"`
	LogLevel                     *string         `json:"log_level" yaml:"log_level"`
	LogFormat                    *string         `json:"log_format" yaml:"log_format"`
}

// parseFile overlays config with the file given by -c or -config. Nothing is
// loaded when neither flag is present.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.FixedOTP, c.FixedOTP)
	setString(&config.PublicURL, c.PublicURL)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.OTPValidityDuration != nil {
		config.OTPValidityDuration = c.OTPValidityDuration.Duration
	}
	if c.LinkValidityDuration != nil {
		config.LinkValidityDuration = c.LinkValidityDuration.Duration
	}
	if c.RateLimit != nil {
		config.RateLimit = *c.RateLimit
	}
	if c.RateBurst != nil {
		config.RateBurst = *c.RateBurst
	}
	if c.SeedDemoUsers != nil {
		config.SeedDemoUsers = *c.SeedDemoUsers
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
