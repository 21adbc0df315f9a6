package cli

import (
	"context"

	"github.com/spf13/cobra"

	catalogcmd "github.com/coral-mesh/ifprobe/internal/cli/catalog"
	configcmd "github.com/coral-mesh/ifprobe/internal/cli/config"
	"github.com/coral-mesh/ifprobe/internal/cli/enumerate"
	"github.com/coral-mesh/ifprobe/internal/cli/enumhelper"
	initcmd "github.com/coral-mesh/ifprobe/internal/cli/init"
	"github.com/coral-mesh/ifprobe/internal/cli/scan"
	"github.com/coral-mesh/ifprobe/pkg/version"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "ifprobe",
	Short: "ifprobe - discover the interfaces a COM class exposes",
	Long: `Discover which interfaces a COM class's instances and class factory expose,
and which module implements each one.

Enumeration can run in-process or in a disposable helper process, so a
misbehaving server cannot take the caller down with it.

Key commands:
- enumerate: probe one class
- scan: probe every catalog class, each in its own helper
- catalog: list the candidate interfaces and known classes`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error); overrides the config")

	// Add subcommands
	rootCmd.AddCommand(initcmd.NewInitCmd())
	rootCmd.AddCommand(newStatusCmd(&logLevel))
	rootCmd.AddCommand(enumerate.NewEnumerateCmd(&logLevel))
	rootCmd.AddCommand(scan.NewScanCmd(&logLevel))
	rootCmd.AddCommand(catalogcmd.NewCatalogCmd(&logLevel))
	rootCmd.AddCommand(configcmd.NewConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Add internal commands (hidden from help)
	rootCmd.AddCommand(enumhelper.New())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("ifprobe version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command. Canceling ctx kills any helper processes
// still running.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
