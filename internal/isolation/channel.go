// Package isolation runs enumerations in a disposable helper process and
// reads the results back over an inherited pipe.
//
// A crashed or hung helper cannot take the caller down with it: the parent
// waits a bounded grace period after the helper's output closes, kills it if
// needed, and substitutes a fallback result for anything a faulted helper
// wrote.
package isolation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/constants"
	ierrors "github.com/coral-mesh/ifprobe/internal/errors"
	"github.com/coral-mesh/ifprobe/internal/record"
	"github.com/coral-mesh/ifprobe/internal/retry"
	"github.com/coral-mesh/ifprobe/internal/wire"
)

// Config configures a Channel.
type Config struct {
	// Helper32Path and Helper64Path are the helper executables per word
	// size. An empty path means the current executable.
	Helper32Path string
	Helper64Path string

	// ExitGracePeriod is how long to wait for the helper to exit once its
	// output stream has closed. Zero uses constants.DefaultExitGracePeriod.
	ExitGracePeriod time.Duration

	// Stderr receives the helper's log output. Nil discards it.
	Stderr io.Writer
}

// Channel launches one helper process per enumeration. It holds no
// per-enumeration state and is safe for concurrent use.
type Channel struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a channel.
func New(cfg Config, logger zerolog.Logger) *Channel {
	if cfg.ExitGracePeriod <= 0 {
		cfg.ExitGracePeriod = constants.DefaultExitGracePeriod
	}
	return &Channel{
		cfg:    cfg,
		logger: logger.With().Str("component", "isolation").Logger(),
	}
}

// HelperPath returns the helper executable this channel launches.
func (c *Channel) HelperPath() (string, error) {
	path := SelectHelper(processIs64Bit, hostIs64Bit(), c.cfg.Helper32Path, c.cfg.Helper64Path)
	if path != "" {
		return path, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return exe, nil
}

type readOutcome struct {
	res *record.Result
	err error
}

// Enumerate runs the enumeration of cls in a fresh helper process.
//
// A fatal status written by the helper is returned as the result's Failure.
// A helper that exits non-zero, or has to be killed, yields record.Fallback
// with Faulted set and no Failure. The returned error is
// reserved for failures to launch the helper and for ctx cancellation, in
// which case the helper is killed.
func (c *Channel) Enumerate(ctx context.Context, cls catalog.Class) (*record.Result, error) {
	helper, err := c.HelperPath()
	if err != nil {
		return nil, err
	}

	logger := c.logger.With().
		Str("clsid", comid.Braced(cls.CLSID)).
		Str("helper", helper).
		Logger()

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	defer ierrors.DeferClose(logger, pr, "failed to close pipe")

	var cmd *exec.Cmd
	err = retry.Do(ctx, startRetry, func() error {
		cmd = c.command(helper, pw, cls)
		return cmd.Start()
	}, isTransientStartError)
	if err != nil {
		_ = pw.Close()
		return nil, fmt.Errorf("failed to start helper: %w", err)
	}
	// The helper owns the write end now; our copy would hold the pipe open
	// after the helper exits.
	if err := pw.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close parent write end")
	}
	defer ierrors.DeferKill(logger, cmd.Process)

	logger.Debug().Int("pid", cmd.Process.Pid).Strs("args", cmd.Args[1:]).Msg("Helper started")

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	read := make(chan readOutcome, 1)
	go func() {
		res, err := wire.ReadResult(pr)
		read <- readOutcome{res: res, err: err}
	}()

	var out readOutcome
	select {
	case out = <-read:
	case <-ctx.Done():
		c.kill(logger, cmd, exited)
		return nil, ctx.Err()
	}

	status, err := c.awaitExit(ctx, logger, cmd, exited)
	if err != nil {
		return nil, err
	}

	if out.res.Failure != nil {
		logger.Debug().Err(out.res.Failure).Int("exit_code", status).Msg("Helper reported a fatal status")
		return out.res, nil
	}
	if out.err != nil {
		logger.Warn().Err(out.err).Msg("Helper output stream failed")
	}
	if status != constants.ExitCodeOK || out.err != nil {
		logger.Warn().
			Err(record.ErrChildProcessFault).
			Int("exit_code", status).
			Int("discarded", len(out.res.Instance)+len(out.res.Factory)).
			Msg("Helper faulted, using fallback result")
		return record.Fallback(), nil
	}

	logger.Debug().
		Int("instance", len(out.res.Instance)).
		Int("factory", len(out.res.Factory)).
		Msg("Helper completed")
	return out.res, nil
}

// command builds the helper invocation for cls, handing it pw.
func (c *Channel) command(helper string, pw *os.File, cls catalog.Class) *exec.Cmd {
	cmd := exec.Command(helper)
	handle := attachPipe(cmd, pw)
	cmd.Args = append(cmd.Args,
		constants.HelperCommand,
		handle,
		comid.Braced(cls.CLSID),
		ApartmentFor(cls.ThreadingModel).String(),
		strconv.FormatUint(uint64(cls.Context), 10),
	)
	cmd.Stderr = c.cfg.Stderr
	cmd.WaitDelay = c.cfg.ExitGracePeriod
	return cmd
}

// startRetry bounds retries of helper launches that fail transiently, as
// when many scan workers start helpers at once.
var startRetry = retry.Config{
	Attempts:       4,
	InitialBackoff: 20 * time.Millisecond,
	MaxBackoff:     200 * time.Millisecond,
}

func isTransientStartError(err error) bool {
	return errors.Is(err, syscall.ETXTBSY) || errors.Is(err, syscall.EAGAIN)
}

// awaitExit waits up to the grace period for the helper and returns its exit
// code, or -1 when it had to be killed.
func (c *Channel) awaitExit(ctx context.Context, logger zerolog.Logger, cmd *exec.Cmd, exited <-chan error) (int, error) {
	timer := time.NewTimer(c.cfg.ExitGracePeriod)
	defer timer.Stop()

	select {
	case <-exited:
		return cmd.ProcessState.ExitCode(), nil
	case <-timer.C:
		logger.Warn().Dur("grace", c.cfg.ExitGracePeriod).Msg("Helper did not exit, killing it")
		c.kill(logger, cmd, exited)
		return -1, nil
	case <-ctx.Done():
		c.kill(logger, cmd, exited)
		return -1, ctx.Err()
	}
}

func (c *Channel) kill(logger zerolog.Logger, cmd *exec.Cmd, exited <-chan error) {
	ierrors.DeferKill(logger, cmd.Process)
	<-exited
}
