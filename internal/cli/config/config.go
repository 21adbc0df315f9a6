// Package config implements the 'ifprobe config' command family.
package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/ifprobe/internal/cli/helpers"
	"github.com/coral-mesh/ifprobe/internal/config"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ifprobe configuration",
		Long: `Manage ifprobe configuration.

Configuration Priority:
  1. IFPROBE_* environment variables (highest)
  2. Config file (~/.ifprobe/config.yaml)
  3. Built-in defaults

Environment Variables:
  IFPROBE_CONFIG   Override the directory holding .ifprobe (default: ~)`,
	}

	cmd.AddCommand(newViewCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newPathCmd())

	return cmd
}

// newViewCmd creates the 'config view' command.
func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the effective configuration",
		Long: `Display the configuration after defaults, the config file and environment
overrides are merged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.OutOrStdout(), config.NewLoader())
		},
	}
}

func runView(w io.Writer, loader *config.Loader) error {
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	_, _ = fmt.Fprintf(w, "# Source: %s\n", loader.ConfigPath())
	_, err = w.Write(data)
	return err
}

// validationRow is one line of 'config validate' output.
type validationRow struct {
	Field   string `header:"FIELD" json:"field"`
	Message string `header:"MESSAGE" json:"message"`
}

// newValidateCmd creates the 'config validate' command.
func newValidateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Validate the effective configuration and report every error.

Checks:
- Schema version is set
- Log level is known
- Timeouts and grace periods are positive
- The activation context selects a server type
- Scan concurrency is at least 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, []helpers.OutputFormat{helpers.FormatTable, helpers.FormatJSON}); err != nil {
				return err
			}
			return runValidate(cmd.OutOrStdout(), config.NewLoader(), helpers.OutputFormat(format))
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, []helpers.OutputFormat{
		helpers.FormatTable,
		helpers.FormatJSON,
	})

	return cmd
}

func runValidate(w io.Writer, loader *config.Loader, format helpers.OutputFormat) error {
	_, err := loader.Load()

	var multi *config.MultiValidationError
	if err != nil && !errors.As(err, &multi) {
		return err
	}

	rows := []validationRow{}
	if multi != nil {
		for _, e := range multi.Errors {
			rows = append(rows, validationRow{Field: e.Field, Message: e.Message})
		}
	}

	if format == helpers.FormatTable && len(rows) == 0 {
		_, _ = fmt.Fprintf(w, "%s: valid\n", loader.ConfigPath())
		return nil
	}

	formatter, ferr := helpers.NewFormatter(format)
	if ferr != nil {
		return ferr
	}
	if err := formatter.Format(rows, w); err != nil {
		return err
	}

	if len(rows) > 0 {
		return fmt.Errorf("configuration has %d errors", len(rows))
	}
	return nil
}

// newPathCmd creates the 'config path' command.
func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(config.NewLoader().ConfigPath())
		},
	}
}
