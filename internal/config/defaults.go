package config

import (
	"github.com/coral-mesh/ifprobe/internal/constants"
	"github.com/coral-mesh/ifprobe/internal/record"
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:  SchemaVersion,
		LogLevel: "info",
		Enumeration: EnumerationConfig{
			Timeout: constants.DefaultEnumerationTimeout,
			Context: record.ContextServer,
		},
		Isolation: IsolationConfig{
			ExitGracePeriod: constants.DefaultExitGracePeriod,
		},
		Catalog: CatalogConfig{
			UseRegistry: true,
		},
		Scan: ScanConfig{
			Concurrency: constants.DefaultScanConcurrency,
		},
	}
}
