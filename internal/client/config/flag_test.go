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
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "address and timeout", args: []string{"cmd", "-a", "127.0.0.1:9090", "-t", "10"},
			expected: &Config{ServerEndpointAddr: "127.0.0.1:9090", RequestTimeout: 10 * time.Second}},
		{name: "unknown flags ignored", args: []string{"cmd", "-x", "1", "-a", "h:1"},
			expected: &Config{ServerEndpointAddr: "h:1", RequestTimeout: 5 * time.Second}},
		{name: "bad timeout", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := os.Args
			t.Cleanup(func() { os.Args = old })
			os.Args = tt.args

			c := &Config{}
			c.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(c) })
				return
			}
			require.NotPanics(t, func() { parseFlags(c) })
			assert.Empty(t, cmp.Diff(tt.expected, c))
		})
	}
}
