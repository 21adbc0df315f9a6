// Package errors provides utilities for error handling in ifprobe.
package errors

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// DeferClose properly closes an io.Closer with logging.
// Use this in defer statements to avoid suppressing close errors.
func DeferClose(logger zerolog.Logger, closer io.Closer, msg string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}

// DeferKill kills a child process with logging.
// Use this in defer statements so a child never outlives its caller.
// Ignores os.ErrProcessDone which is expected once the child has been reaped.
func DeferKill(logger zerolog.Logger, proc *os.Process) {
	if proc == nil {
		return
	}
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.Warn().Err(err).Int("pid", proc.Pid).Msg("child process kill failed")
	}
}

// Must panics if error is not nil.
// Use only for initialization code where failure should halt the program.
func Must(err error, msg string) {
	if err != nil {
		panic(fmt.Sprintf("%s: %v", msg, err))
	}
}
