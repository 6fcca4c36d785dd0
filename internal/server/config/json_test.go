package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	return writeTempFile(t, "cfg.json", string(b))
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	pathFlag := writeTempJSON(t, map[string]any{
		"endpoint_addr":                   "www.example:9000",
		"database_dsn":                    "jobs.db",
		"secret_key":                      "my_secret_key",
		"access_token_validity_duration":  "1m",
		"refresh_token_validity_duration": "3m",
		"link_validity_duration":          float64(time.Hour),
		"fixed_otp":                       "000000",
		"rate_limit":                      5,
		"rate_burst":                      7,
		"seed_demo_users":                 false,
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, parseFile(cfg, []string{"-config", pathFlag}))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddr)
		assert.Equal(t, "jobs.db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, time.Hour, cfg.LinkValidityDuration)
		assert.Equal(t, "000000", cfg.FixedOTP)
		assert.Equal(t, 5.0, cfg.RateLimit)
		assert.Equal(t, 7, cfg.RateBurst)
		assert.False(t, cfg.SeedDemoUsers)
	})

	t.Run("no config flag leaves values untouched", func(t *testing.T) {
		cfg := &Config{EndpointAddr: "defaults:1234", SecretKey: "key", SeedDemoUsers: true}
		require.NoError(t, parseFile(cfg, nil))

		assert.Equal(t, "defaults:1234", cfg.EndpointAddr)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.True(t, cfg.SeedDemoUsers)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, map[string]any{"secret_key": "other"})
		cfg := &Config{EndpointAddr: ":1"}
		require.NoError(t, parseFile(cfg, []string{"-c", partial}))

		assert.Equal(t, ":1", cfg.EndpointAddr)
		assert.Equal(t, "other", cfg.SecretKey)
	})

	t.Run("invalid JSON is an error", func(t *testing.T) {
		bad := writeTempFile(t, "bad.json", `{ this is not valid json`)
		require.ErrorContains(t, parseFile(&Config{}, []string{"-config", bad}), "decode config")
	})
}
