// Package scan implements the scan command.
package scan

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/cli/helpers"
	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/isolation"
	"github.com/coral-mesh/ifprobe/internal/record"
)

// Row summarizes one scanned class.
type Row struct {
	CLSID    string `header:"CLSID" json:"clsid"`
	Name     string `header:"NAME" json:"name,omitempty"`
	Instance int    `header:"INSTANCE" json:"instance"`
	Factory  int    `header:"FACTORY" json:"factory"`
	Status   string `header:"STATUS" json:"status"`
}

// Detail is the JSON form of one scanned class.
type Detail struct {
	Row
	Interfaces []record.Row `json:"interfaces,omitempty"`
}

// NewScanCmd creates the scan command.
func NewScanCmd(logLevel *string) *cobra.Command {
	var (
		format      string
		concurrency int
		extra       []string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Enumerate every catalog class in isolated helper processes",
		Long: `Enumerate each class of the catalog file, plus any --clsid given, in its own
helper process. A class whose server crashes or hangs is reported as faulted
and does not affect the others.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, helpers.AllFormats); err != nil {
				return err
			}

			cfg, err := helpers.LoadConfig()
			if err != nil {
				return err
			}
			logger := helpers.NewLogger(cfg, *logLevel)

			catalogs, err := helpers.LoadCatalogs(cfg, logger)
			if err != nil {
				return err
			}
			classes, err := selectClasses(catalogs, extra, cfg.Enumeration.Context, logger)
			if err != nil {
				return err
			}
			if len(classes) == 0 {
				return fmt.Errorf("nothing to scan: add classes to the catalog file or pass --clsid")
			}

			if concurrency <= 0 {
				concurrency = cfg.Scan.Concurrency
			}
			channel := isolation.New(isolation.Config{
				Helper32Path:    cfg.Isolation.Helper32,
				Helper64Path:    cfg.Isolation.Helper64,
				ExitGracePeriod: cfg.Isolation.ExitGracePeriod,
			}, logger)

			results, err := isolation.NewScanner(channel, concurrency, logger, func(r isolation.ScanResult) {
				logger.Info().Stringer("class", r.Class).Str("status", status(r)).Msg("Class scanned")
			}).Scan(cmd.Context(), classes)

			if werr := Render(cmd.OutOrStdout(), results, helpers.OutputFormat(format)); werr != nil {
				return werr
			}
			return err
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Helper processes to run at once (default from config)")
	cmd.Flags().StringSliceVar(&extra, "clsid", nil, "Additional class to scan (repeatable)")
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.AllFormats)

	return cmd
}

func selectClasses(catalogs *helpers.Catalogs, extra []string, fallback record.ClassContext, logger zerolog.Logger) ([]catalog.Class, error) {
	var classes []catalog.Class
	if catalogs.File != nil {
		classes = append(classes, catalogs.File.Classes()...)
	}
	for _, s := range extra {
		clsid, err := comid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid class id %q: %w", s, err)
		}
		classes = append(classes, helpers.ResolveClass(catalogs.Classes(), clsid, fallback, 0, logger))
	}
	return classes, nil
}

func status(r isolation.ScanResult) string {
	switch {
	case r.Err != nil:
		return "error: " + r.Err.Error()
	case r.Result == nil:
		return "skipped"
	case r.Result.Faulted:
		return "faulted"
	case r.Result.Failure == nil:
		return "ok"
	default:
		return fmt.Sprintf("failed 0x%08X", uint32(comid.StatusOf(r.Result.Failure)))
	}
}

// Summarize converts scan results into output rows, in scan order.
func Summarize(results []isolation.ScanResult) []Detail {
	details := make([]Detail, len(results))
	for i, r := range results {
		d := Detail{Row: Row{
			CLSID:  comid.Braced(r.Class.CLSID),
			Name:   r.Class.Name,
			Status: status(r),
		}}
		if r.Result != nil {
			d.Instance = len(r.Result.Instance)
			d.Factory = len(r.Result.Factory)
			d.Interfaces = r.Result.Rows()
		}
		details[i] = d
	}
	return details
}

// Render writes the scan summary. JSON output carries every interface; table
// and CSV output one line per class.
func Render(w io.Writer, results []isolation.ScanResult, format helpers.OutputFormat) error {
	formatter, err := helpers.NewFormatter(format)
	if err != nil {
		return err
	}

	details := Summarize(results)
	if format == helpers.FormatJSON {
		return formatter.Format(details, w)
	}

	rows := make([]Row, len(details))
	for i, d := range details {
		rows[i] = d.Row
	}
	if format == helpers.FormatTable {
		helpers.Heading(w, "Scanned %d classes", len(rows))
	}
	return formatter.Format(rows, w)
}
