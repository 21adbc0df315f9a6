package initcmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration and starter catalog",
		Long: `Write a default configuration and a starter interface catalog.

This command creates:
- ~/.ifprobe/config.yaml with the built-in defaults
- ~/.ifprobe/catalog.yaml listing the interfaces probed on every class

Existing files are left alone unless --force is given.

Example:
  ifprobe init
  IFPROBE_CONFIG=/opt/probe ifprobe init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), config.NewLoader(), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

// starterCatalog lists the well-known interfaces with their names so the
// catalog commands have something readable to show.
func starterCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Interface{
		{IID: comid.IIDUnknown, Name: "IUnknown"},
		{IID: comid.IIDMarshal, Name: "IMarshal"},
		{IID: comid.IIDPSFactoryBuffer, Name: "IPSFactoryBuffer"},
	}, nil)
}

func runInit(w io.Writer, loader *config.Loader, force bool) error {
	_, _ = fmt.Fprintln(w, "Initializing ifprobe...")

	cfgPath := loader.ConfigPath()
	switch exists, err := fileExists(cfgPath); {
	case err != nil:
		return err
	case exists && !force:
		_, _ = fmt.Fprintf(w, "  Config exists, keeping %s\n", cfgPath)
	default:
		cfg := config.DefaultConfig()
		if err := loader.Save(cfg); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "  Wrote %s\n", cfgPath)
	}

	catPath := loader.DefaultCatalogPath()
	switch exists, err := fileExists(catPath); {
	case err != nil:
		return err
	case exists && !force:
		_, _ = fmt.Fprintf(w, "  Catalog exists, keeping %s\n", catPath)
	default:
		data, err := starterCatalog().Marshal()
		if err != nil {
			return fmt.Errorf("failed to marshal catalog: %w", err)
		}
		if err := os.WriteFile(catPath, data, 0600); err != nil {
			return fmt.Errorf("failed to write catalog: %w", err)
		}
		_, _ = fmt.Fprintf(w, "  Wrote %s\n", catPath)
	}

	_, _ = fmt.Fprintln(w, "\nNext: ifprobe enumerate <clsid>")
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return true, nil
}
