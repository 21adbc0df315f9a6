package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := New(Config{Level: tt.level, Output: &bytes.Buffer{}})
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNew_TraceReachesOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "trace", Output: &buf})

	logger.Trace().Str("iid", "{00000003-0000-0000-C000-000000000046}").Msg("Interface probed")

	assert.Contains(t, buf.String(), `"level":"trace"`)
	assert.Contains(t, buf.String(), "Interface probed")
}

func TestNew_PrettyToPipeHasNoColor(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithComponent(Config{Level: "info", Pretty: true, Output: &buf}, "isolation")

	logger.Warn().Msg("Helper faulted")

	out := buf.String()
	assert.Contains(t, out, "Helper faulted")
	assert.Contains(t, out, "component=isolation")
	assert.NotContains(t, out, "\x1b[", "escape codes are only written to terminals")
}

func TestDefaultConfig_UsesStderr(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Same(t, os.Stderr, cfg.Output, "stdout is reserved for command output")
	assert.Equal(t, IsTerminal(os.Stderr), cfg.Pretty)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.False(t, IsTerminal(f))
}
