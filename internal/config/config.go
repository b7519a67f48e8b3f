// =============================================================================
// NEM12 Parser - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file. Every
// setting has a default, so an absent config.yaml is not an error when the
// default path is used: the tool then runs on ./input and ./output.
//
// EXAMPLE config.yaml:
//   input_dir: ./input
//   output_dir: ./output
//   file_patterns: ["*.csv", "*.nem12"]
//   output_format: xlsx
//   log_level: debug
//   max_concurrency: 8
//   archive_on_success: true
//   metrics_file: ./output/nem12.prom
//   xml_global_volume_numbering: true
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/nem12-parser/internal/logging"
)

// DefaultPath is the configuration file used when --config is not given.
const DefaultPath = "config.yaml"

// Output formats.
const (
	FormatXML  = "xml"
	FormatXLSX = "xlsx"
	FormatNone = "none"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for NEM12 files when no files are given on the
	// command line.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives exported files, error logs and run summaries.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after they parse successfully,
	// when ArchiveOnSuccess is set.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every exported file.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// FilePatterns are glob patterns matched against names in InputDir.
	// Default: ["*.csv", "*.nem12"]
	FilePatterns []string `yaml:"file_patterns"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat selects the export written for each parsed file.
	// Valid values: "xml", "xlsx", "none"
	// Default: "xml"
	OutputFormat string `yaml:"output_format"`

	// OutputNameFormat names exported files. Placeholders:
	//   {uuid} {timestamp} {date} {time} {original}
	// The extension is added from OutputFormat.
	// Default: "{original}_{uuid}"
	OutputNameFormat string `yaml:"output_name_format"`

	// XMLGlobalVolumeNumbering numbers <volume> elements across the whole
	// XML document instead of restarting at 1 in each meterRead.
	// Default: false
	XMLGlobalVolumeNumbering bool `yaml:"xml_global_volume_numbering"`

	// MetricsFile, when set, receives Prometheus metrics in the textfile
	// exposition format at the end of each run.
	MetricsFile string `yaml:"metrics_file"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the log file. Empty logs to stderr.
	LogFile string `yaml:"log_file"`

	// LogLevel controls verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the number of files parsed at the same time.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps the run going when a file fails. When false the
	// parse command reports failure as soon as the run completes.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// ArchiveOnSuccess moves successfully parsed inputs to InputArchiveDir.
	// Default: false
	ArchiveOnSuccess bool `yaml:"archive_on_success"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the configuration from a YAML file.
//
// A missing file is only tolerated for DefaultPath; an explicitly named
// file that does not exist is an error.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && configPath == DefaultPath:
		// Run on defaults.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if len(config.FilePatterns) == 0 {
		config.FilePatterns = []string{"*.csv", "*.nem12"}
	}
	if config.OutputFormat == "" {
		config.OutputFormat = FormatXML
	}
	config.OutputFormat = strings.ToLower(config.OutputFormat)
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{original}_{uuid}"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.ContinueOnError == nil {
		yes := true
		config.ContinueOnError = &yes
	}
}

// Validate checks values that have no sensible fallback.
func (c *MainConfig) Validate() error {
	switch c.OutputFormat {
	case FormatXML, FormatXLSX, FormatNone:
	default:
		return fmt.Errorf("output_format %q must be one of %s, %s, %s", c.OutputFormat, FormatXML, FormatXLSX, FormatNone)
	}
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log_level %q is not recognized", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q must be text or json", c.LogFormat)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", c.MaxConcurrency)
	}
	return nil
}

// ShouldContinueOnError reports the effective continue_on_error setting.
func (c *MainConfig) ShouldContinueOnError() bool {
	return c.ContinueOnError == nil || *c.ContinueOnError
}
