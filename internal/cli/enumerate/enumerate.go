// Package enumerate implements the enumerate command.
package enumerate

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/cli/helpers"
	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/config"
	"github.com/coral-mesh/ifprobe/internal/enumerator"
	"github.com/coral-mesh/ifprobe/internal/isolation"
	"github.com/coral-mesh/ifprobe/internal/probe"
	"github.com/coral-mesh/ifprobe/internal/record"
)

// Options holds the enumerate command flags.
type Options struct {
	Isolated bool
	Context  record.ClassContext
	STA      bool
	Timeout  time.Duration
	Format   string
	LogLevel string
}

// NewEnumerateCmd creates the enumerate command.
func NewEnumerateCmd(logLevel *string) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "enumerate <clsid>",
		Short: "List the interfaces implemented by a COM class",
		Long: `Create the class factory and an instance of a COM class and ask both for
every known interface. Interfaces implemented in-process are attributed to the
module and vtable offset that implement them.

By default the class is enumerated inside this process. With --isolated it is
enumerated in a disposable helper process, so a crashing or hanging server
cannot take ifprobe down with it.`,
		Example: `  ifprobe enumerate {E436EBB3-524F-11CE-9F53-0020AF0BA770}
  ifprobe enumerate --isolated --context inproc -o json 13709620-C279-11CE-A49E-444553540000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.LogLevel = *logLevel
			return run(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Isolated, "isolated", false, "Enumerate in a separate helper process")
	cmd.Flags().BoolVar(&opts.STA, "sta", false, "Force a single-threaded apartment")
	helpers.AddContextFlag(cmd, &opts.Context)
	helpers.AddTimeoutFlag(cmd, &opts.Timeout)
	helpers.AddFormatFlag(cmd, &opts.Format, helpers.FormatTable, helpers.AllFormats)

	return cmd
}

func run(cmd *cobra.Command, arg string, opts *Options) error {
	if err := helpers.ValidateFormat(opts.Format, helpers.AllFormats); err != nil {
		return err
	}
	clsid, err := comid.Parse(arg)
	if err != nil {
		return fmt.Errorf("invalid class id %q: %w", arg, err)
	}

	cfg, err := helpers.LoadConfig()
	if err != nil {
		return err
	}
	logger := helpers.NewLogger(cfg, opts.LogLevel)

	catalogs, err := helpers.LoadCatalogs(cfg, logger)
	if err != nil {
		return err
	}

	cls := helpers.ResolveClass(catalogs.Classes(), clsid, cfg.Enumeration.Context, opts.Context, logger)
	if opts.STA {
		cls.ThreadingModel = catalog.ThreadingApartment
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = cfg.Enumeration.Timeout
	}

	var res *record.Result
	if opts.Isolated {
		res, err = enumerateIsolated(cmd, cfg, cls, logger)
		if err != nil {
			return err
		}
	} else {
		e := enumerator.New(probe.NewNativeActivator(), probe.NewNativeModuleLocator(), catalogs.Interfaces(), logger)
		defer e.Close()
		res = e.EnumerateInProcess(cls.CLSID, cls.Context, enumerator.Options{
			SingleThreaded: !cls.ThreadingModel.AllowsMTA(),
			Timeout:        timeout,
		})
	}

	return Render(cmd.OutOrStdout(), cmd.ErrOrStderr(), cls, res, helpers.OutputFormat(opts.Format))
}

func enumerateIsolated(cmd *cobra.Command, cfg *config.Config, cls catalog.Class, logger zerolog.Logger) (*record.Result, error) {
	chCfg := isolation.Config{
		Helper32Path:    cfg.Isolation.Helper32,
		Helper64Path:    cfg.Isolation.Helper64,
		ExitGracePeriod: cfg.Isolation.ExitGracePeriod,
	}
	if logger.GetLevel() <= zerolog.DebugLevel {
		chCfg.Stderr = cmd.ErrOrStderr()
	}
	return isolation.New(chCfg, logger).Enumerate(cmd.Context(), cls)
}

// Render writes res in format. A faulted helper is reported as a warning
// alongside the fallback records; any other failure is returned after the
// partial records are written.
func Render(out, errOut io.Writer, cls catalog.Class, res *record.Result, format helpers.OutputFormat) error {
	formatter, err := helpers.NewFormatter(format)
	if err != nil {
		return err
	}

	if format == helpers.FormatTable {
		helpers.Heading(out, "%s (%s)", cls, cls.Context)
	}
	if err := formatter.Format(res.Rows(), out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	switch {
	case res.Faulted:
		helpers.Warning(errOut, "%v; showing fallback result", record.ErrChildProcessFault)
		return nil
	case res.Failure == nil:
		return nil
	default:
		return fmt.Errorf("enumeration of %s failed (status 0x%08X): %w",
			comid.Braced(cls.CLSID), uint32(comid.StatusOf(res.Failure)), res.Failure)
	}
}
