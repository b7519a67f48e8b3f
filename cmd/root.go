// =============================================================================
// NEM12 Parser - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// (parse, validate, version) are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (nem12)
//   ├── parseCmd (nem12 parse)
//   ├── validateCmd (nem12 validate)
//   └── versionCmd (nem12 version)
//
// The root command loads the configuration and opens the logger before any
// subcommand runs, and closes the log file afterwards.
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/nem12-parser/internal/config"
	"github.com/ginjaninja78/nem12-parser/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// logFormat overrides log_format from the configuration file.
var logFormat string

// mainConfig and logger are set up by loadRuntime before a subcommand runs.
var (
	mainConfig *config.MainConfig
	logger     *slog.Logger
	closeLog   = func() error { return nil }
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nem12",
	Short: "NEM12 Parser - Parse NEM12 meter data files into meter reads",
	Long: `NEM12 Parser reads NEM12 interval meter data files (header 100,
meter read 200, volume 300 and trailer 900 records), validates them and
exports the parsed meter reads as XML or XLSX.

Key Features:
  - Strict envelope and field validation with line-level error reporting
  - Exact decimal volumes
  - Concurrent processing of many files
  - Optional archival of successfully parsed inputs
  - Prometheus textfile metrics

Example Usage:
  nem12 parse                         # Parse every file in the input directory
  nem12 parse meter.csv --format xlsx # Parse one file and export it as XLSX
  nem12 validate meter.csv            # Check a file without exporting it`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadRuntime()
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Log format: text or json (overrides log_format)",
	)
}

// loadRuntime loads the configuration and opens the logger.
func loadRuntime() error {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	l, closer, err := logging.Open(cfg.LogFile, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	mainConfig, logger, closeLog = cfg, l, closer
	logger.Debug("configuration loaded",
		"config", cfgFile,
		"input_dir", cfg.InputDir,
		"output_format", cfg.OutputFormat,
		"max_concurrency", cfg.MaxConcurrency,
	)
	return nil
}
