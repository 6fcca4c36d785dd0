package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Equal(t, "file::memory:", c.DatabaseDSN)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, 15*time.Minute, c.OTPValidityDuration)
	assert.Empty(t, c.FixedOTP)
	assert.True(t, c.SeedDemoUsers)
	assert.Equal(t, "json", c.LogFormat)
}

func TestLoad_UsesDefaultsWithoutArgs(t *testing.T) {
	c, err := Load(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *c)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeTempFile(t, "cfg.yaml", "endpoint_addr: \":9000\"\nsecret_key: from-file\notp_validity_duration: 2m\n")

	c, err := Load([]string{"-c", path, "-s", "from-flag"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.EndpointAddr)
	assert.Equal(t, "from-flag", c.SecretKey)
	assert.Equal(t, 2*time.Minute, c.OTPValidityDuration)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{"-c", "/does/not/exist.json"})
	require.ErrorContains(t, err, "read config")

	_, err = Load([]string{"-t", "soon"})
	require.ErrorContains(t, err, "parse flags")
}
