package helpers

import (
	"fmt"

	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog"

	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/config"
	"github.com/coral-mesh/ifprobe/internal/logging"
	"github.com/coral-mesh/ifprobe/internal/record"
)

// Catalogs bundles the interface and class catalogs a command works with.
type Catalogs struct {
	// File is the YAML catalog, nil when none is configured.
	File *catalog.Catalog
	// Registry is the host registry, nil when disabled.
	Registry *catalog.Registry
}

// Interfaces returns the candidate interface source: the file catalog first,
// then the registry.
func (c *Catalogs) Interfaces() catalog.Source {
	var sources []catalog.Source
	if c.File != nil {
		sources = append(sources, c.File)
	}
	if c.Registry != nil {
		sources = append(sources, c.Registry)
	}
	return catalog.Merge(sources...)
}

// Classes returns the class lookup: the file catalog first, then the
// registry.
func (c *Catalogs) Classes() catalog.ClassLookup {
	var lookups []catalog.ClassLookup
	if c.File != nil {
		lookups = append(lookups, c.File)
	}
	if c.Registry != nil {
		lookups = append(lookups, c.Registry)
	}
	return catalog.Chain(lookups...)
}

// LoadConfig loads the ifprobe configuration.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// NewLogger creates the command logger on stderr. A non-empty level
// overrides the configured one.
func NewLogger(cfg *config.Config, level string) zerolog.Logger {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	if level != "" {
		logCfg.Level = level
	}
	return logging.New(logCfg)
}

// LoadCatalogs opens the catalogs selected by cfg.
func LoadCatalogs(cfg *config.Config, logger zerolog.Logger) (*Catalogs, error) {
	c := &Catalogs{}
	if cfg.Catalog.Path != "" {
		file, err := catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		c.File = file
	}
	if cfg.Catalog.UseRegistry {
		c.Registry = catalog.NewRegistry(logger)
	}
	return c, nil
}

// ResolveClass returns the activation defaults for clsid. A class missing
// from every catalog gets fallback as its context and no threading model.
// A non-zero override replaces the catalog context.
func ResolveClass(lookup catalog.ClassLookup, clsid ole.GUID, fallback, override record.ClassContext, logger zerolog.Logger) catalog.Class {
	cls, err := lookup.Class(clsid)
	if err != nil {
		logger.Debug().Err(err).Msg("Class not in catalog, using defaults")
		cls = catalog.Class{CLSID: clsid, Context: fallback}
	}
	if cls.Context == 0 {
		cls.Context = fallback
	}
	if override != 0 {
		cls.Context = override
	}
	return cls
}
