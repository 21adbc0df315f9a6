package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/ifprobe/internal/cli/helpers"
	"github.com/coral-mesh/ifprobe/internal/cli/status"
	"github.com/coral-mesh/ifprobe/internal/config"
	"github.com/coral-mesh/ifprobe/internal/isolation"
)

// newStatusCmd creates the environment status command.
func newStatusCmd(logLevel *string) *cobra.Command {
	var (
		format  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the ifprobe environment",
		Long: `Display the environment ifprobe runs in.

This command provides a quick overview of:
- Process and host word size, which pick the helper executable
- Whether the helper and config file exist
- Catalog file contents and registry availability`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader()
			cfg, err := helpers.LoadConfig()
			if err != nil {
				return err
			}
			logger := helpers.NewLogger(cfg, *logLevel)

			channel := isolation.New(isolation.Config{
				Helper32Path: cfg.Isolation.Helper32,
				Helper64Path: cfg.Isolation.Helper64,
			}, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			info := status.NewProvider(loader, cfg, channel, logger).Collect(ctx)

			formatter := status.NewFormatter(cmd.OutOrStdout())
			if format != string(helpers.FormatTable) {
				return formatter.OutputJSON(info)
			}
			return formatter.OutputTable(info, verbose)
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, []helpers.OutputFormat{
		helpers.FormatTable,
		helpers.FormatJSON,
	})
	helpers.AddVerboseFlag(cmd, &verbose)

	return cmd
}
