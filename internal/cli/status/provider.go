// Package status gathers and prints the ifprobe environment report.
package status

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/host"

	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/config"
	"github.com/coral-mesh/ifprobe/internal/isolation"
)

// Info is the environment report.
type Info struct {
	Platform      string `json:"platform"`
	KernelArch    string `json:"kernel_arch,omitempty"`
	ProcessBits   int    `json:"process_bits"`
	Host64Bit     bool   `json:"host_64bit"`
	Helper        string `json:"helper"`
	HelperFound   bool   `json:"helper_found"`
	ConfigPath    string `json:"config_path"`
	ConfigFound   bool   `json:"config_found"`
	CatalogPath   string `json:"catalog_path,omitempty"`
	Interfaces    int    `json:"catalog_interfaces"`
	Classes       int    `json:"catalog_classes"`
	Registry      string `json:"registry"`
	RegistryCount int    `json:"registry_interfaces,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Provider collects the environment report.
type Provider struct {
	loader  *config.Loader
	cfg     *config.Config
	channel *isolation.Channel
	logger  zerolog.Logger
}

// NewProvider creates a new status provider.
func NewProvider(loader *config.Loader, cfg *config.Config, channel *isolation.Channel, logger zerolog.Logger) *Provider {
	return &Provider{
		loader:  loader,
		cfg:     cfg,
		channel: channel,
		logger:  logger,
	}
}

// Collect builds the report. Individual probes that fail leave their fields
// empty; only the first failure is kept in Info.Error.
func (p *Provider) Collect(ctx context.Context) Info {
	info := Info{
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		ProcessBits: strconv.IntSize,
		ConfigPath:  p.loader.ConfigPath(),
		CatalogPath: p.cfg.Catalog.Path,
		Registry:    "disabled",
	}
	fail := func(err error) {
		if info.Error == "" {
			info.Error = err.Error()
		}
	}

	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.Platform = hi.Platform + " " + hi.PlatformVersion + " (" + info.Platform + ")"
		info.KernelArch = hi.KernelArch
	}
	info.Host64Bit = isolation.Is64BitArch(info.KernelArch) || (info.KernelArch == "" && info.ProcessBits == 64)

	if _, err := os.Stat(info.ConfigPath); err == nil {
		info.ConfigFound = true
	}

	if helper, err := p.channel.HelperPath(); err != nil {
		fail(err)
	} else {
		info.Helper = helper
		if _, err := os.Stat(helper); err == nil {
			info.HelperFound = true
		}
	}

	if info.CatalogPath != "" {
		if c, err := catalog.LoadFile(info.CatalogPath); err != nil {
			fail(err)
		} else {
			info.Interfaces = len(c.Interfaces())
			info.Classes = len(c.Classes())
		}
	}

	if p.cfg.Catalog.UseRegistry {
		ids, err := catalog.NewRegistry(p.logger).InterfaceIDs()
		switch {
		case errors.Is(err, catalog.ErrNoRegistry):
			info.Registry = "unavailable"
		case err != nil:
			info.Registry = "error"
			fail(err)
		default:
			info.Registry = "available"
			info.RegistryCount = len(ids)
		}
	}

	return info
}
