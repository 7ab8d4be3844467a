package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file searched for from the working directory upward.
const FileName = ".covrec.yaml"

// Constants for default values.
const (
	DefaultReportDir = "build/logs/clover-behat"
	DefaultLogLevel  = "info"
	DefaultTheme     = "default"
)

// AppConfig represents the contents of .covrec.yaml.
type AppConfig struct {
	Root      string `yaml:"root,omitempty"`       // Project root; relative paths resolve against the file's directory
	ReportDir string `yaml:"report_dir,omitempty"` // Report directory relative to root
	LogLevel  string `yaml:"log_level,omitempty"`
	Theme     string `yaml:"theme,omitempty"` // default, orca, mono
	NoColor   bool   `yaml:"no_color"`

	// path is where the config was loaded from; empty when defaults were used.
	path string
}

// Path returns the file the config was loaded from, or "" for defaults.
func (c *AppConfig) Path() string { return c.path }

// DefaultAppConfig returns an AppConfig with defaults applied.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		ReportDir: DefaultReportDir,
		LogLevel:  DefaultLogLevel,
		Theme:     DefaultTheme,
	}
}

// LoadConfig loads .covrec.yaml. An explicit path must exist and parse;
// with no explicit path the nearest file up the tree is used, and a missing
// file means defaults.
func LoadConfig(explicitPath string) (*AppConfig, error) {
	cfg := DefaultAppConfig()

	configPath := explicitPath
	if configPath == "" {
		configPath = findConfigFile()
		if configPath == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 - config file path is controlled
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
	}

	cfg.path = configPath
	if cfg.Root != "" && !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(configPath), cfg.Root)
	}

	return cfg, nil
}

// findConfigFile looks for .covrec.yaml in current and parent directories.
func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
