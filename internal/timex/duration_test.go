package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_JSON(t *testing.T) {
	var v struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"15m","b":3000000000}`), &v))
	require.Equal(t, 15*time.Minute, v.A.Duration)
	require.Equal(t, 3*time.Second, v.B.Duration)

	out, err := json.Marshal(Duration{Duration: 2 * time.Second})
	require.NoError(t, err)
	require.JSONEq(t, `"2s"`, string(out))
}

func TestDuration_JSONInvalid(t *testing.T) {
	var d Duration
	require.ErrorIs(t, json.Unmarshal([]byte(`"soon"`), &d), ErrInvalidDuration)
	require.ErrorIs(t, json.Unmarshal([]byte(`true`), &d), ErrInvalidDuration)
}

func TestDuration_YAML(t *testing.T) {
	var v struct {
		A Duration `yaml:"a"`
		B Duration `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 10s\nb: 1000\n"), &v))
	require.Equal(t, 10*time.Second, v.A.Duration)
	require.Equal(t, time.Microsecond, v.B.Duration)

	require.ErrorIs(t, yaml.Unmarshal([]byte("a: [1]\n"), &v), ErrInvalidDuration)
}
