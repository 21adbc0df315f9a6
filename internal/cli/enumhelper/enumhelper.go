// Package enumhelper implements the internal _enum-helper command, the child
// side of the isolation protocol.
//
// This command is not intended to be called directly by users. The parent
// process launches it with an inherited pipe handle, and it writes the
// enumeration result to that pipe as protocol lines. Logs go to stderr only.
package enumhelper

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/ifprobe/internal/apartment"
	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/cli/helpers"
	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/config"
	"github.com/coral-mesh/ifprobe/internal/constants"
	"github.com/coral-mesh/ifprobe/internal/enumerator"
	ierrors "github.com/coral-mesh/ifprobe/internal/errors"
	"github.com/coral-mesh/ifprobe/internal/isolation"
	"github.com/coral-mesh/ifprobe/internal/logging"
	"github.com/coral-mesh/ifprobe/internal/probe"
	"github.com/coral-mesh/ifprobe/internal/record"
	"github.com/coral-mesh/ifprobe/internal/wire"
)

// Request is a parsed helper command line.
type Request struct {
	Pipe      string
	CLSID     ole.GUID
	Apartment apartment.Kind
	Context   record.ClassContext
}

// ParseArgs parses `<pipe-handle> <clsid> <s|m> <clsctx>`.
func ParseArgs(args []string) (Request, error) {
	if len(args) != 4 {
		return Request{}, fmt.Errorf("expected 4 arguments, got %d", len(args))
	}

	clsid, err := comid.Parse(args[1])
	if err != nil {
		return Request{}, fmt.Errorf("invalid class id: %w", err)
	}
	kind, err := apartment.ParseKind(args[2])
	if err != nil {
		return Request{}, err
	}
	clsctx, err := strconv.ParseUint(args[3], 10, 32)
	if err != nil {
		return Request{}, fmt.Errorf("invalid class context %q: %w", args[3], err)
	}

	return Request{
		Pipe:      args[0],
		CLSID:     clsid,
		Apartment: kind,
		Context:   record.ClassContext(clsctx),
	}, nil
}

// New creates the internal _enum-helper command.
// This command is hidden from help output and is only used internally for
// process isolation.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           constants.HelperCommand + " <pipe-handle> <clsid> <s|m> <clsctx>",
		Short:         "Internal command that enumerates one class for an isolating parent",
		Hidden:        true,
		Args:          cobra.ExactArgs(4),
		RunE:          runEnumHelper,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	return cmd
}

func runEnumHelper(cmd *cobra.Command, args []string) error {
	req, err := ParseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[enum-helper] Error: %v\n", err)
		return err
	}

	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[enum-helper] Warning: %v, using defaults\n", err)
		cfg = config.DefaultConfig()
	}

	// Stdout is not part of the protocol; everything human-readable goes to
	// stderr.
	logger := logging.NewWithComponent(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: false,
		Output: os.Stderr,
	}, "enum-helper")

	pipe, err := isolation.OpenPipe(req.Pipe)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open pipe")
		return err
	}
	defer ierrors.DeferClose(logger, pipe, "failed to close pipe")

	catalogs, err := helpers.LoadCatalogs(cfg, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load catalog file, using registry only")
		catalogs = &helpers.Catalogs{}
		if cfg.Catalog.UseRegistry {
			catalogs.Registry = catalog.NewRegistry(logger)
		}
	}

	e := enumerator.New(probe.NewNativeActivator(), probe.NewNativeModuleLocator(), catalogs.Interfaces(), logger)
	defer e.Close()

	return Run(e, req, cfg.Enumeration.Timeout, pipe, logger)
}

// Run enumerates the requested class with the hard-exit watchdog armed and
// writes the result to out. A failed enumeration writes an ERROR line and is
// returned so the process exits non-zero.
func Run(e *enumerator.Enumerator, req Request, timeout time.Duration, out io.Writer, logger zerolog.Logger) error {
	logger.Info().
		Str("clsid", comid.Braced(req.CLSID)).
		Stringer("apartment", req.Apartment).
		Stringer("clsctx", req.Context).
		Dur("timeout", timeout).
		Msg("Enumerating class")

	res := e.EnumerateInProcess(req.CLSID, req.Context, enumerator.Options{
		SingleThreaded: req.Apartment == apartment.STA,
		Timeout:        timeout,
		ExitOnTimeout:  true,
	})

	w := wire.NewWriter(out)
	if res.Failure != nil {
		status := comid.StatusOf(res.Failure)
		logger.Error().Err(res.Failure).Str("status", fmt.Sprintf("0x%08X", uint32(status))).Msg("Enumeration failed")
		if err := w.WriteError(status); err != nil {
			return fmt.Errorf("failed to write status: %w", err)
		}
		return res.Failure
	}

	if err := w.WriteResult(res); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	logger.Info().
		Int("instance", len(res.Instance)).
		Int("factory", len(res.Factory)).
		Msg("Enumeration written")
	return nil
}
