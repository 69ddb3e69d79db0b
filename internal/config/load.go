package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
// flags may be nil when no command line is involved.
func Load(flags *Flags) (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the standard locations.
	var configPath string
	if flags != nil {
		configPath = flags.ConfigPath
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, errors.Wrapf(err, "loading config from %s", configPath)
		}
		cfg.resolvePaths(filepath.Dir(configPath))
	}

	if flags != nil {
		flags.apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./bldgen.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "bldgen")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "bldgen")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "bldgen")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "bldgen")
	}
}

// loadFromFile merges a YAML file over the values already in cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths anchors the data file paths read from a config file at the
// file's directory. Paths from flags stay relative to the working directory.
func (c *Config) resolvePaths(base string) {
	c.Logging.LogFile = ResolvePath(base, c.Logging.LogFile)
	c.Features.Path = ResolvePath(base, c.Features.Path)
	c.Styles.Path = ResolvePath(base, c.Styles.Path)
	c.Catalog.Path = ResolvePath(base, c.Catalog.Path)
	c.Terrain.GridPath = ResolvePath(base, c.Terrain.GridPath)
}

// ResolvePath makes a relative path from the config file relative to base.
func ResolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
