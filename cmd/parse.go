// =============================================================================
// NEM12 Parser - Parse Command
// =============================================================================
//
// This file defines the 'parse' command, which runs the full pipeline over
// a set of NEM12 files.
//
// COMMAND USAGE:
//   nem12 parse [files...] [flags]
//
// FLAGS:
//   --format   : Override output_format (xml, xlsx, none)
//   --dry-run  : Parse and report without writing exports, logs or archives
//   --show     : Print every parsed meter read
//
// PROCESSING PIPELINE:
//   1. Resolve the input files (arguments, or discovery in input_dir)
//   2. For each file (concurrently, at most max_concurrency at once):
//      a. Parse the NEM12 records
//      b. Export the meter reads
//      c. Archive the input when archive_on_success is set
//   3. Print per-file results and totals
//   4. Write the summary report, error log and metrics textfile
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/nem12-parser/internal/config"
	"github.com/ginjaninja78/nem12-parser/internal/converter"
	"github.com/ginjaninja78/nem12-parser/internal/metrics"
	"github.com/ginjaninja78/nem12-parser/internal/nem12"
	"github.com/ginjaninja78/nem12-parser/internal/validation"
	"github.com/ginjaninja78/nem12-parser/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// outputFormat overrides output_format when set.
var outputFormat string

// dryRun parses without writing anything.
var dryRun bool

// showReads prints every parsed meter read.
var showReads bool

// =============================================================================
// PARSE COMMAND DEFINITION
// =============================================================================

// parseCmd represents the 'parse' command.
var parseCmd = &cobra.Command{
	Use:   "parse [files...]",
	Short: "Parse NEM12 files and export the meter reads",
	Long: `The parse command reads each NEM12 file, validates its envelope and
records, and exports the resulting meter reads in the configured format.
Files named on the command line are parsed; with no arguments every file in
input_dir matching file_patterns is parsed.

Files are processed concurrently and independently: a failure in one file
does not affect the others.

On success:
  - The export is placed in the output directory
  - The input is moved to the input archive (when archive_on_success is set)

On failure:
  - The failure is recorded in an error log in the output directory
  - The input remains where it was`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runParse(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(
		&outputFormat,
		"format",
		"",
		"Output format: xml, xlsx or none (overrides output_format)",
	)

	parseCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Parse and report without writing exports, logs or archives",
	)

	parseCmd.Flags().BoolVar(
		&showReads,
		"show",
		false,
		"Print every parsed meter read",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runParse(out io.Writer, args []string) error {
	startTime := time.Now()
	runID := uuid.NewString()

	// =========================================================================
	// STEP 1: EFFECTIVE CONFIGURATION
	// =========================================================================

	cfg := *mainConfig
	if outputFormat != "" {
		cfg.OutputFormat = strings.ToLower(outputFormat)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if dryRun {
		cfg.OutputFormat = config.FormatNone
		cfg.ArchiveOnSuccess = false
	}

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	if !dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 2: RESOLVE INPUT FILES
	// =========================================================================

	inputFiles, err := resolveInputFiles(fm, &cfg, args)
	if err != nil {
		return err
	}
	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No NEM12 files found in the input directory.")
		return nil
	}

	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))
	logger.Info("parse run started", "run_id", runID, "files", len(inputFiles), "dry_run", dryRun)

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	m := metrics.New()
	results := processFiles(inputFiles, &cfg, m)

	// =========================================================================
	// STEP 4: REPORT
	// =========================================================================

	summary := utils.ProcessingSummary{
		RunID:      runID,
		StartTime:  startTime,
		TotalFiles: len(results),
	}
	var errorEntries []utils.ErrorLogEntry

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		summary.TotalLines += result.Stats.Lines
		summary.TotalMeterReads += result.Stats.MeterReads
		summary.TotalVolumes += result.Stats.Volumes

		if result.Success {
			summary.SuccessfulFiles++
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				RunID:       result.RunID,
				InputFile:   result.FilePath,
				OutputFile:  result.OutputFile,
				MeterReads:  result.Stats.MeterReads,
				Volumes:     result.Stats.Volumes,
				ProcessTime: result.Stats.ProcessingTime,
			})
			if result.OutputFile != "" {
				fmt.Fprintf(out, "  ✓ %s -> %s (%d meter reads, %d volumes)\n",
					name, result.OutputFile, result.Stats.MeterReads, result.Stats.Volumes)
			} else {
				fmt.Fprintf(out, "  ✓ %s (%d meter reads, %d volumes)\n",
					name, result.Stats.MeterReads, result.Stats.Volumes)
			}
		} else {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				RunID:        result.RunID,
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
				ErrorType:    nem12.Kind(result.Error),
			})
			errorEntries = append(errorEntries, errorLogEntry(result))
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
		}

		if showReads {
			printReads(out, result.Reads)
		}
	}
	summary.EndTime = time.Now()

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Meter reads:     %d\n", summary.TotalMeterReads)
	fmt.Fprintf(out, "Volumes:         %d\n", summary.TotalVolumes)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !dryRun {
		if err := writeReports(out, &cfg, summary, errorEntries, m); err != nil {
			return err
		}
	}

	logger.Info("parse run complete",
		"run_id", runID,
		"successful", summary.SuccessfulFiles,
		"failed", summary.FailedFiles,
	)

	if summary.FailedFiles > 0 && !cfg.ShouldContinueOnError() {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// resolveInputFiles returns args when given, otherwise the files in the
// input directory matching the configured patterns.
func resolveInputFiles(fm *utils.FileManager, cfg *config.MainConfig, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	files, err := fm.DiscoverInputFiles(cfg.FilePatterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	return files, nil
}

// processFiles runs a Converter per file, at most cfg.MaxConcurrency at a
// time, and returns the results sorted by file path.
func processFiles(files []string, cfg *config.MainConfig, m *metrics.Metrics) []converter.Result {
	var wg sync.WaitGroup
	results := make(chan converter.Result, len(files))
	sem := make(chan struct{}, max(cfg.MaxConcurrency, 1))

	for _, file := range files {
		wg.Add(1)
		go func(filePath string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results <- converter.New(filePath, cfg, logger, m).Run()
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]converter.Result, 0, len(files))
	for result := range results {
		collected = append(collected, result)
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].FilePath < collected[j].FilePath
	})
	return collected
}

// errorLogEntry describes a failed result, with the line and field when
// the failure can be located.
func errorLogEntry(result converter.Result) utils.ErrorLogEntry {
	entry := utils.ErrorLogEntry{
		Timestamp:    time.Now(),
		FileName:     filepath.Base(result.FilePath),
		ErrorType:    nem12.Kind(result.Error),
		ErrorMessage: result.Error.Error(),
	}

	var pe *nem12.ParseError
	if errors.As(result.Error, &pe) {
		entry.LineNumber = pe.Line
		entry.RecordType = pe.RecordType
	}
	var ve *validation.ValidationError
	if errors.As(result.Error, &ve) {
		entry.FieldName = ve.Field
		entry.FieldValue = ve.Value
	}
	return entry
}

func printReads(out io.Writer, reads []*nem12.MeterRead) {
	for _, read := range reads {
		fmt.Fprintf(out, "      %s %s total=%s\n", read.NMI(), read.EnergyUnit(), read.TotalVolume())
		for _, v := range read.Volumes() {
			fmt.Fprintf(out, "        %s %s %s\n", v.Date.Format("2006-01-02"), v.Volume, v.Quality)
		}
	}
}

// writeReports writes the summary, the error log and the metrics textfile.
func writeReports(out io.Writer, cfg *config.MainConfig, summary utils.ProcessingSummary, entries []utils.ErrorLogEntry, m *metrics.Metrics) error {
	summaryPath, err := utils.WriteSummaryLog(summary, cfg.OutputDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Summary:         %s\n", summaryPath)

	if len(entries) > 0 {
		errorPath, err := utils.WriteErrorLog(entries, cfg.OutputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Error log:       %s\n", errorPath)
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		logger.Debug("metrics written", "path", cfg.MetricsFile)
	}
	return nil
}
