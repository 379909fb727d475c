// Package config provides configuration loading and validation for the
// language server, backed by github.com/spf13/viper the way the teacher
// loads its own server configuration (pkg/config's original ServerConfig/
// CacheConfig/AnalysisConfig shape is carried over; the fields are
// replaced with this domain's workspace/analysis/logging concerns).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidMapping      = errors.New("path mapping must set both physical and virtual")
	ErrInvalidIgnoreMarker = errors.New("path-prefix marker name must not be empty")
)

// Default configuration values.
const (
	defaultStoreDirName       = ".vscode/sqfvm-lsp"
	defaultIgnoreFileName     = "ls-ignore.txt"
	defaultMarkerName         = "$PBOPREFIX$"
	defaultScriptedMarkerName = "use_scripted_analyzers"
	defaultLogLevel           = "info"
	defaultMetricsAddr        = "127.0.0.1:9090"
)

// PathMapping is one `{physical, virtual}` pair, matching spec.md §6's
// `Executable.PathMappings` configuration shape.
type PathMapping struct {
	Physical string `mapstructure:"physical"`
	Virtual  string `mapstructure:"virtual"`
}

// WorkspaceConfig holds on-disk layout and include-resolution configuration.
type WorkspaceConfig struct {
	PathMappings       []PathMapping `mapstructure:"path_mappings"`
	StoreDirName       string        `mapstructure:"store_dir_name"`
	IgnoreFileName     string        `mapstructure:"ignore_file_name"`
	PathPrefixMarker   string        `mapstructure:"path_prefix_marker"`
	ScriptedMarkerName string        `mapstructure:"scripted_marker_name"`
}

// AnalysisConfig holds analysis-pass configuration.
type AnalysisConfig struct {
	ScriptedAnalyzersEnabled bool `mapstructure:"scripted_analyzers_enabled"`
}

// LoggingConfig holds logging configuration, consumed by pkg/observability.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig controls the optional Prometheus scrape endpoint, consumed
// by pkg/observability and cmd/sqfvm-lsp. Separate from OTLP export: a
// workspace can run both, either, or neither.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Config holds all configuration for the language server.
type Config struct {
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("sqfvm-lsp")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./.vscode")
	}

	viperCfg.SetEnvPrefix("SQFVM_LSP")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if readErr := viperCfg.ReadInConfig(); readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ApplyWorkspacePathMappings replaces cfg's workspace-scoped path mappings
// with those received via `workspace/didChangeConfiguration`
// (`Executable.PathMappings`, spec.md §6), leaving any mappings learned
// from path-prefix-marker files (which this function never sees — those
// live in the workspace orchestrator, not here) untouched.
func (c *Config) ApplyWorkspacePathMappings(mappings []PathMapping) {
	c.Workspace.PathMappings = mappings
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("workspace.store_dir_name", defaultStoreDirName)
	viperCfg.SetDefault("workspace.ignore_file_name", defaultIgnoreFileName)
	viperCfg.SetDefault("workspace.path_prefix_marker", defaultMarkerName)
	viperCfg.SetDefault("workspace.scripted_marker_name", defaultScriptedMarkerName)
	viperCfg.SetDefault("workspace.path_mappings", []PathMapping{})

	viperCfg.SetDefault("analysis.scripted_analyzers_enabled", false)

	viperCfg.SetDefault("logging.level", defaultLogLevel)
	viperCfg.SetDefault("logging.format", "json")
	viperCfg.SetDefault("logging.output", "stderr")

	viperCfg.SetDefault("metrics.enabled", false)
	viperCfg.SetDefault("metrics.addr", defaultMetricsAddr)
}

func validateConfig(cfg *Config) error {
	for _, m := range cfg.Workspace.PathMappings {
		if m.Physical == "" || m.Virtual == "" {
			return fmt.Errorf("%w: %+v", ErrInvalidMapping, m)
		}
	}

	if cfg.Workspace.PathPrefixMarker == "" {
		return ErrInvalidIgnoreMarker
	}

	return nil
}

// DefaultIgnoreListTemplate is written to <store-dir>/ls-ignore.txt on
// first run (spec.md §6's "auto-written template").
const DefaultIgnoreListTemplate = `# One path per line, relative to the workspace root.
# Lines starting with # are comments. A listed path's subpaths are also ignored.
.vscode/
.git/
`
