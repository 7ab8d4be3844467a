package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables recognized by ResolveConfig.
const (
	EnvRunCoverage = "RUN_COVERAGE"
	EnvFeature     = "COVERAGE_FEATURE"
	EnvScenario    = "COVERAGE_SCENARIO"
	EnvRoot        = "COVREC_ROOT"
	EnvReportDir   = "COVREC_REPORT_DIR"
	EnvLogLevel    = "COVREC_LOG_LEVEL"
	EnvTheme       = "COVREC_THEME"
	EnvNoColor     = "NO_COLOR"
)

// Value sources recorded in ResolvedConfig.
const (
	SourceCLI     = "cli"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceDefault = "default"
)

// CliFlags holds the values of command-line flags. Empty strings mean unset.
type CliFlags struct {
	ConfigFile string
	Root       string
	ReportDir  string
	LogLevel   string
	Theme      string
	Feature    string
	Scenario   string
	NoColor    bool

	// Flags to track if they were explicitly set by the user
	FeatureSet  bool
	ScenarioSet bool
	NoColorSet  bool
}

// ResolvedConfig holds the final configuration after applying all priority rules.
type ResolvedConfig struct {
	Root      string // absolute
	ReportDir string // relative to Root unless absolute
	LogLevel  string
	Theme     string
	NoColor   bool

	Feature  string
	Scenario string

	// RunCoverage is the RUN_COVERAGE flag; RunCoverageSet is false when the
	// variable is absent.
	RunCoverage    bool
	RunCoverageSet bool

	// Resolution metadata (for debugging)
	ConfigPath      string
	RootSource      string
	ReportDirSource string
	LogLevelSource  string
	ThemeSource     string
}

// ReportPath returns the absolute report directory.
func (c *ResolvedConfig) ReportPath() string {
	if filepath.IsAbs(c.ReportDir) {
		return c.ReportDir
	}
	return filepath.Join(c.Root, c.ReportDir)
}

// ResolveConfig resolves configuration from all sources with explicit priority order:
// CLI flags, then environment, then .covrec.yaml, then defaults.
func ResolveConfig(flags CliFlags) (*ResolvedConfig, error) {
	appCfg, err := LoadConfig(flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	fileSource := SourceFile
	if appCfg.Path() == "" {
		fileSource = SourceDefault
	}

	resolved := &ResolvedConfig{ConfigPath: appCfg.Path()}

	resolved.Root, resolved.RootSource = pick(flags.Root, EnvRoot, appCfg.Root, fileSource)
	if resolved.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving project root: %w", err)
		}
		resolved.Root, resolved.RootSource = wd, SourceDefault
	}
	if resolved.Root, err = filepath.Abs(resolved.Root); err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	resolved.ReportDir, resolved.ReportDirSource = pick(flags.ReportDir, EnvReportDir, appCfg.ReportDir, fileSource)
	resolved.LogLevel, resolved.LogLevelSource = pick(flags.LogLevel, EnvLogLevel, appCfg.LogLevel, fileSource)
	resolved.Theme, resolved.ThemeSource = pick(flags.Theme, EnvTheme, appCfg.Theme, fileSource)

	// NoColor: any non-empty NO_COLOR disables color, per no-color.org
	switch {
	case flags.NoColorSet:
		resolved.NoColor = flags.NoColor
	case os.Getenv(EnvNoColor) != "":
		resolved.NoColor = true
	default:
		resolved.NoColor = appCfg.NoColor
	}

	// Labels are taken as-is, without validation.
	resolved.Feature = os.Getenv(EnvFeature)
	if flags.FeatureSet {
		resolved.Feature = flags.Feature
	}
	resolved.Scenario = os.Getenv(EnvScenario)
	if flags.ScenarioSet {
		resolved.Scenario = flags.Scenario
	}

	if v, ok := os.LookupEnv(EnvRunCoverage); ok {
		b, err := ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvRunCoverage, err)
		}
		resolved.RunCoverage, resolved.RunCoverageSet = b, true
	}

	if err := validateResolvedConfig(resolved); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return resolved, nil
}

// pick returns the first non-empty value among flag, env and file along with its source.
func pick(flagVal, envKey, fileVal, fileSource string) (string, string) {
	if flagVal != "" {
		return flagVal, SourceCLI
	}
	if v := os.Getenv(envKey); v != "" {
		return v, SourceEnv
	}
	return fileVal, fileSource
}

// ParseBool parses the boolean spellings accepted for RUN_COVERAGE.
// An empty value is false.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "", "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

// validateResolvedConfig validates the resolved configuration and returns errors for invalid states.
func validateResolvedConfig(cfg *ResolvedConfig) error {
	if cfg.ReportDir == "" {
		return fmt.Errorf("report_dir cannot be empty")
	}

	validThemes := map[string]bool{"default": true, "orca": true, "mono": true}
	if !validThemes[cfg.Theme] {
		return fmt.Errorf("invalid theme value: %s (must be: default, orca, mono)", cfg.Theme)
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true, "off": true, "disabled": true}
	if !validLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level value: %s", cfg.LogLevel)
	}

	return nil
}
