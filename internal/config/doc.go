// Package config handles configuration loading and resolution for covrec.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--root, --report-dir, --log-level, --theme, --no-color, --feature, --scenario)
//  2. Environment variables (COVREC_ROOT, COVREC_REPORT_DIR, COVREC_LOG_LEVEL, COVREC_THEME, NO_COLOR)
//  3. YAML config file (.covrec.yaml in the working directory or any parent)
//  4. Hardcoded defaults
//
// When a higher-priority source sets a value, it overrides any lower-priority values.
//
// # Session Labels
//
// The feature and scenario titles come from COVERAGE_FEATURE and
// COVERAGE_SCENARIO unless a flag sets them. They are never validated; empty
// titles produce the report name "-.xml".
//
// # Coverage Flag
//
// RUN_COVERAGE accepts 1/true/yes/on and 0/false/no/off (case-insensitive).
// Sessions started from the environment record only when it is true.
// Explicit CLI invocations record regardless.
package config
