package status

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/coral-mesh/ifprobe/internal/cli/helpers"
	"github.com/coral-mesh/ifprobe/pkg/version"
)

// Output holds the complete status output structure for JSON mode.
type Output struct {
	Info
	Version string `json:"version"`
}

// Formatter handles formatting status output.
type Formatter struct {
	w io.Writer
}

// NewFormatter creates a new status formatter.
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

// OutputJSON outputs the status in JSON format.
func (f *Formatter) OutputJSON(info Info) error {
	data, err := json.MarshalIndent(Output{Info: info, Version: version.Version}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, err = fmt.Fprintln(f.w, string(data))
	return err
}

// OutputTable outputs the status in human-readable form.
func (f *Formatter) OutputTable(info Info, verbose bool) error {
	helpers.Heading(f.w, "ifprobe Environment Status")
	_, _ = fmt.Fprintln(f.w)

	_, _ = fmt.Fprintf(f.w, "Version:   ifprobe %s\n", version.Version)
	_, _ = fmt.Fprintf(f.w, "Platform:  %s\n", info.Platform)
	_, _ = fmt.Fprintf(f.w, "Word size: %d-bit process on %s host\n", info.ProcessBits, bitness(info.Host64Bit))
	_, _ = fmt.Fprintf(f.w, "Helper:    %s (%s)\n", info.Helper, found(info.HelperFound))
	_, _ = fmt.Fprintf(f.w, "Config:    %s (%s)\n", info.ConfigPath, found(info.ConfigFound))

	catalogPath := info.CatalogPath
	if catalogPath == "" {
		catalogPath = "none"
	}
	_, _ = fmt.Fprintf(f.w, "Catalog:   %s (%d interfaces, %d classes)\n", catalogPath, info.Interfaces, info.Classes)

	registry := info.Registry
	if info.Registry == "available" {
		registry = fmt.Sprintf("%s (%d interfaces)", registry, info.RegistryCount)
	}
	_, _ = fmt.Fprintf(f.w, "Registry:  %s\n", registry)

	if verbose && info.KernelArch != "" {
		_, _ = fmt.Fprintf(f.w, "Kernel:    %s\n", info.KernelArch)
	}

	if info.Error != "" {
		_, _ = fmt.Fprintln(f.w)
		helpers.Warning(f.w, "%s", info.Error)
	}
	if !info.HelperFound {
		_, _ = fmt.Fprintln(f.w)
		_, _ = fmt.Fprintln(f.w, "Set isolation.helper32/helper64 or run 'ifprobe init' to configure.")
	}
	return nil
}

func bitness(is64 bool) string {
	if is64 {
		return "64-bit"
	}
	return "32-bit"
}

func found(ok bool) string {
	if ok {
		return "found"
	}
	return "missing"
}
