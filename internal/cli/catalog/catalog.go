// Package catalogcmd implements the catalog command, which lists the
// interfaces and classes the enumerator works from.
package catalogcmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/cli/helpers"
	"github.com/coral-mesh/ifprobe/internal/comid"
)

// InterfaceRow is one candidate interface.
type InterfaceRow struct {
	IID    string `header:"IID" json:"iid"`
	Name   string `header:"NAME" json:"name,omitempty"`
	Source string `header:"SOURCE" json:"source"`
}

// ClassRow is one catalog class.
type ClassRow struct {
	CLSID     string `header:"CLSID" json:"clsid"`
	Name      string `header:"NAME" json:"name,omitempty"`
	Context   string `header:"CONTEXT" json:"context"`
	Threading string `header:"THREADING" json:"threading_model,omitempty"`
}

// NewCatalogCmd creates the catalog command.
func NewCatalogCmd(logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the interface and class catalogs",
	}

	cmd.AddCommand(newInterfacesCmd(logLevel))
	cmd.AddCommand(newClassesCmd(logLevel))

	return cmd
}

func newInterfacesCmd(logLevel *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "interfaces",
		Short: "List candidate interface identifiers in probe order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, helpers.AllFormats); err != nil {
				return err
			}
			catalogs, err := openCatalogs(*logLevel)
			if err != nil {
				return err
			}
			rows, err := InterfaceRows(catalogs)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), rows, len(rows), "interfaces", helpers.OutputFormat(format))
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.AllFormats)
	return cmd
}

func newClassesCmd(logLevel *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List the classes of the catalog file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, helpers.AllFormats); err != nil {
				return err
			}
			catalogs, err := openCatalogs(*logLevel)
			if err != nil {
				return err
			}
			rows := ClassRows(catalogs.File)
			return render(cmd.OutOrStdout(), rows, len(rows), "classes", helpers.OutputFormat(format))
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.AllFormats)
	return cmd
}

func openCatalogs(logLevel string) (*helpers.Catalogs, error) {
	cfg, err := helpers.LoadConfig()
	if err != nil {
		return nil, err
	}
	return helpers.LoadCatalogs(cfg, helpers.NewLogger(cfg, logLevel))
}

// InterfaceRows lists the file catalog's interfaces followed by the
// registry's, in the order they are probed.
func InterfaceRows(catalogs *helpers.Catalogs) ([]InterfaceRow, error) {
	rows := []InterfaceRow{}
	if catalogs.File != nil {
		for _, iface := range catalogs.File.Interfaces() {
			rows = append(rows, InterfaceRow{IID: comid.Braced(iface.IID), Name: iface.Name, Source: "file"})
		}
	}
	if catalogs.Registry != nil {
		ids, err := catalogs.Registry.InterfaceIDs()
		if errors.Is(err, catalog.ErrNoRegistry) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read registry interfaces: %w", err)
		}
		for _, iid := range ids {
			rows = append(rows, InterfaceRow{IID: comid.Braced(iid), Source: "registry"})
		}
	}
	return rows, nil
}

// ClassRows lists the classes of c. A nil catalog has none.
func ClassRows(c *catalog.Catalog) []ClassRow {
	if c == nil {
		return []ClassRow{}
	}
	classes := c.Classes()
	rows := make([]ClassRow, len(classes))
	for i, cls := range classes {
		rows[i] = ClassRow{
			CLSID:     comid.Braced(cls.CLSID),
			Name:      cls.Name,
			Context:   cls.Context.String(),
			Threading: string(cls.ThreadingModel),
		}
	}
	return rows
}

func render(w io.Writer, rows any, n int, noun string, format helpers.OutputFormat) error {
	formatter, err := helpers.NewFormatter(format)
	if err != nil {
		return err
	}
	if format == helpers.FormatTable {
		helpers.Heading(w, "%d %s", n, noun)
	}
	return formatter.Format(rows, w)
}
