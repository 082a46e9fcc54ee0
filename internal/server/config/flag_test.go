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
		expected    *Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9091", "-m", ":9100", "-d", "postgres://db", "-s", "secret",
				"-t", "30", "-k", "12", "-l", "debug",
			},
			expected: &Config{
				EndpointAddrGRPC:            "127.0.0.1:9091",
				MetricsAddr:                 ":9100",
				DatabaseDSN:                 "postgres://db",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 30 * time.Minute,
				BcryptCost:                  12,
				LogLevel:                    "debug",
			},
		},
		{
			name:        "non numeric lifetime",
			args:        []string{"cmd", "-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := os.Args
			t.Cleanup(func() { os.Args = orig })
			os.Args = tt.args

			config := &Config{}
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
