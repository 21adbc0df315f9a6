package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/ifprobe/internal/record"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IFPROBE_LOG_LEVEL", "trace")
	t.Setenv("IFPROBE_TIMEOUT", "750ms")
	t.Setenv("IFPROBE_CONTEXT", "0x1")
	t.Setenv("IFPROBE_HELPER64", "/opt/ifprobe/helper64")
	t.Setenv("IFPROBE_EXIT_GRACE", "2s")
	t.Setenv("IFPROBE_CATALOG", "/etc/ifprobe/catalog.yaml")
	t.Setenv("IFPROBE_USE_REGISTRY", "false")
	t.Setenv("IFPROBE_SCAN_CONCURRENCY", "12")

	cfg := DefaultConfig()
	require.NoError(t, LoadFromEnv(cfg))

	assert.Equal(t, "trace", cfg.LogLevel)
	assert.Equal(t, 750*time.Millisecond, cfg.Enumeration.Timeout)
	assert.Equal(t, record.ContextInprocServer, cfg.Enumeration.Context)
	assert.Equal(t, "/opt/ifprobe/helper64", cfg.Isolation.Helper64)
	assert.Empty(t, cfg.Isolation.Helper32)
	assert.Equal(t, 2*time.Second, cfg.Isolation.ExitGracePeriod)
	assert.Equal(t, "/etc/ifprobe/catalog.yaml", cfg.Catalog.Path)
	assert.False(t, cfg.Catalog.UseRegistry)
	assert.Equal(t, 12, cfg.Scan.Concurrency)
}

func TestLoadFromEnv_EmptyKeepsValue(t *testing.T) {
	t.Setenv("IFPROBE_TIMEOUT", "")

	cfg := DefaultConfig()
	require.NoError(t, LoadFromEnv(cfg))
	assert.Equal(t, DefaultConfig().Enumeration.Timeout, cfg.Enumeration.Timeout)
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"IFPROBE_TIMEOUT", "ten seconds"},
		{"IFPROBE_SCAN_CONCURRENCY", "many"},
		{"IFPROBE_USE_REGISTRY", "perhaps"},
		{"IFPROBE_CONTEXT", "sideways"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)

			err := LoadFromEnv(DefaultConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestLoadFromEnv_NilAndNonStruct(t *testing.T) {
	var cfg *Config
	assert.NoError(t, LoadFromEnv(cfg))

	n := 3
	assert.NoError(t, LoadFromEnv(&n))
}
