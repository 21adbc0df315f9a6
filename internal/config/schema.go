package config

import (
	"time"

	"github.com/coral-mesh/ifprobe/internal/record"
)

// SchemaVersion is the configuration schema version.
const SchemaVersion = "1"

// Config represents ~/.ifprobe/config.yaml.
type Config struct {
	Version     string            `yaml:"version"`
	LogLevel    string            `yaml:"log_level,omitempty" env:"IFPROBE_LOG_LEVEL"`
	Enumeration EnumerationConfig `yaml:"enumeration"`
	Isolation   IsolationConfig   `yaml:"isolation"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Scan        ScanConfig        `yaml:"scan"`
}

// EnumerationConfig contains in-process enumeration settings.
type EnumerationConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"IFPROBE_TIMEOUT"`
	// Context is the activation context used when neither the command line
	// nor the catalog supplies one.
	Context record.ClassContext `yaml:"context" env:"IFPROBE_CONTEXT"`
}

// IsolationConfig contains helper process settings.
type IsolationConfig struct {
	Helper32        string        `yaml:"helper32,omitempty" env:"IFPROBE_HELPER32"`
	Helper64        string        `yaml:"helper64,omitempty" env:"IFPROBE_HELPER64"`
	ExitGracePeriod time.Duration `yaml:"exit_grace_period" env:"IFPROBE_EXIT_GRACE"`
}

// CatalogConfig selects the interface and class catalogs.
type CatalogConfig struct {
	// Path is a YAML catalog file. Empty means ~/.ifprobe/catalog.yaml when
	// it exists.
	Path string `yaml:"path,omitempty" env:"IFPROBE_CATALOG"`
	// UseRegistry adds the interfaces and classes registered on the host.
	UseRegistry bool `yaml:"use_registry" env:"IFPROBE_USE_REGISTRY"`
}

// ScanConfig contains batch scan settings.
type ScanConfig struct {
	Concurrency int `yaml:"concurrency" env:"IFPROBE_SCAN_CONCURRENCY"`
}
