package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Config contains logger configuration.
type Config struct {
	// Level sets the logging level (trace, debug, info, warn, error).
	Level string
	// Pretty enables human-readable console output with colors.
	Pretty bool
	// Output sets the output writer (defaults to os.Stderr). Stdout is
	// reserved for command output.
	Output io.Writer
}

// DefaultConfig returns a default logger configuration. Output is pretty only
// when stderr is a terminal.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Pretty: IsTerminal(os.Stderr),
		Output: os.Stderr,
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// New creates a new zerolog logger with the given configuration.
func New(cfg Config) zerolog.Logger {
	// Set global time format
	zerolog.TimeFieldFormat = time.RFC3339

	// Parse log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set up output
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	// Use pretty console writer for human-readable output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
			NoColor:    !IsTerminal(output),
		}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewWithComponent creates a logger with a component field for structured logging.
func NewWithComponent(cfg Config, component string) zerolog.Logger {
	return New(cfg).With().Str("component", component).Logger()
}
