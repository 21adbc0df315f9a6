package helpers

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coral-mesh/ifprobe/internal/record"
)

var _ pflag.Value = (*record.ClassContext)(nil)

// AddFormatFlag adds a standard --format/-o flag to a command.
// Validates that the format is in the supportedFormats list.
func AddFormatFlag(cmd *cobra.Command, formatVar *string, defaultFormat OutputFormat, supportedFormats []OutputFormat) {
	formatNames := make([]string, len(supportedFormats))
	for i, f := range supportedFormats {
		formatNames[i] = string(f)
	}

	description := fmt.Sprintf("Output format (%s)", strings.Join(formatNames, ", "))
	cmd.Flags().StringVarP(formatVar, "format", "o", string(defaultFormat), description)

	// Add shell completion for format flag.
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return formatNames, cobra.ShellCompDirectiveNoFileComp
	})
}

// AddContextFlag adds a standard --context flag for the activation context.
// The flag accepts the names and numbers understood by
// record.ParseClassContext.
func AddContextFlag(cmd *cobra.Command, contextVar *record.ClassContext) {
	cmd.Flags().Var(contextVar, "context", "Activation context (inproc, handler, local, remote, server or a CLSCTX number)")

	_ = cmd.RegisterFlagCompletionFunc("context", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"inproc", "local", "remote", "server", "inproc|local"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// AddTimeoutFlag adds a standard --timeout flag bounding one enumeration.
func AddTimeoutFlag(cmd *cobra.Command, timeoutVar *time.Duration) {
	cmd.Flags().DurationVar(timeoutVar, "timeout", 0, "Enumeration timeout (default from config)")
}

// AddVerboseFlag adds a standard --verbose/-v flag.
func AddVerboseFlag(cmd *cobra.Command, verboseVar *bool) {
	cmd.Flags().BoolVarP(verboseVar, "verbose", "v", false, "Verbose output (show additional details)")
}

// ValidateFormat checks if the format is in the supported list.
func ValidateFormat(format string, supported []OutputFormat) error {
	for _, s := range supported {
		if format == string(s) {
			return nil
		}
	}

	supportedNames := make([]string, len(supported))
	for i, s := range supported {
		supportedNames[i] = string(s)
	}

	return fmt.Errorf("unsupported format %q, must be one of: %s",
		format, strings.Join(supportedNames, ", "))
}
