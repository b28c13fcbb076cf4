package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		start       *Config
		expected    *Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-m", ":9100", "-d", "db", "-l", "debug", "-s", "secret",
				"-t", "5", "-x", "3", "-k", "30",
			},
			start: &Config{},
			expected: &Config{
				EndpointAddrGRPC:            "127.0.0.1:9090",
				MetricsAddr:                 ":9100",
				DatabaseDSN:                 "db",
				LogLevel:                    "debug",
				JWTSecretKey:                "secret",
				MaxFailedAttempts:           3,
				AccessTokenValidityDuration: 5 * time.Minute,
				LockoutDuration:             30 * time.Minute,
			},
		},
		{
			name:  "durations untouched without flags",
			args:  []string{"cmd", "-unrelated", "value"},
			start: &Config{LockoutDuration: 30 * time.Second, AccessTokenValidityDuration: 90 * time.Second},
			expected: &Config{
				LockoutDuration:             30 * time.Second,
				AccessTokenValidityDuration: 90 * time.Second,
			},
		},
		{
			name:        "bad integer",
			args:        []string{"cmd", "-x", "many"},
			start:       &Config{},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(tt.start) })
				return
			}

			require.NotPanics(t, func() { parseFlags(tt.start) })
			assert.Empty(t, cmp.Diff(tt.expected, tt.start))
		})
	}
}
