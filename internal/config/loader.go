// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/ifprobe/internal/constants"
	"github.com/coral-mesh/ifprobe/internal/safe"
)

// Loader handles loading and saving the configuration file.
type Loader struct {
	homeDir string
}

// NewLoader creates a new config loader.
// The base directory is resolved in this order:
//  1. IFPROBE_CONFIG environment variable.
//  2. User home directory (~/).
//  3. The system temp directory, where no config file is expected to exist.
func NewLoader() *Loader {
	if baseDir := os.Getenv("IFPROBE_CONFIG"); baseDir != "" {
		return &Loader{homeDir: baseDir}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		return &Loader{homeDir: homeDir}
	}

	return &Loader{homeDir: filepath.Join(os.TempDir(), "ifprobe-fallback")}
}

// ConfigPath returns the path to the config file.
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.homeDir, constants.DefaultDir, constants.ConfigFile)
}

// DefaultCatalogPath returns the path of the catalog used when none is
// configured.
func (l *Loader) DefaultCatalogPath() string {
	return filepath.Join(l.homeDir, constants.DefaultDir, constants.CatalogFile)
}

// Load loads the configuration.
// Returns the default config if the file doesn't exist.
// Applies environment variable overrides, then validates the result.
func (l *Loader) Load() (*Config, error) {
	path := l.ConfigPath()

	config := DefaultConfig()
	data, err := safe.ReadFile(path, nil)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := LoadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if config.Catalog.Path == "" {
		if _, err := os.Stat(l.DefaultCatalogPath()); err == nil {
			config.Catalog.Path = l.DefaultCatalogPath()
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration file.
func (l *Loader) Save(config *Config) error {
	path := l.ConfigPath()

	//nolint:gosec // G301: Directory needs standard permissions for traversal
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
