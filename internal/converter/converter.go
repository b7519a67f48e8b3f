// =============================================================================
// NEM12 Parser - Converter Module
// =============================================================================
//
// This module runs the pipeline for a single NEM12 file, from parsing to
// export and archival.
//
// PIPELINE:
//   1. Parse the NEM12 file into meter reads
//   2. Export the reads in the configured output format
//   3. Archive the input (and copy the output) when archive_on_success is set
//   4. Record the outcome in the metrics registry
//
// CONCURRENCY:
//   Each file gets its own Converter, and a Converter shares no state with
//   any other. The cmd layer runs them concurrently.
//
// =============================================================================

package converter

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/nem12-parser/internal/config"
	"github.com/ginjaninja78/nem12-parser/internal/metrics"
	"github.com/ginjaninja78/nem12-parser/internal/nem12"
	"github.com/ginjaninja78/nem12-parser/internal/xlsxwriter"
	"github.com/ginjaninja78/nem12-parser/internal/xmlwriter"
	"github.com/ginjaninja78/nem12-parser/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// RunID identifies this file's run in log output and reports.
	RunID string

	// OutputFile is the path to the exported file. It is empty when the
	// file failed or the output format is "none".
	OutputFile string

	// ArchivedFile is where the input was moved, if it was archived.
	ArchivedFile string

	// Success indicates whether the file parsed and exported cleanly.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Reads holds the parsed meter reads. On failure it holds the reads
	// completed before the failing line.
	Reads []*nem12.MeterRead

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Lines is the number of lines read from the file.
	Lines int

	// MeterReads is the number of 200 records aggregated.
	MeterReads int

	// Volumes is the number of 300 records aggregated.
	Volumes int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter processes one NEM12 file.
type Converter struct {
	path    string
	config  *config.MainConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	runID   string
}

// New creates a Converter for the file at path. logger and m may be nil.
func New(path string, cfg *config.MainConfig, logger *slog.Logger, m *metrics.Metrics) *Converter {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	runID := uuid.NewString()
	return &Converter{
		path:    path,
		config:  cfg,
		logger:  logger.With("file", filepath.Base(path), "run_id", runID),
		metrics: m,
		runID:   runID,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the file.
func (c *Converter) Run() (result Result) {
	start := time.Now()
	result = Result{FilePath: c.path, RunID: c.runID}
	defer func() {
		result.Stats.ProcessingTime = time.Since(start)
		c.record(result)
	}()

	c.logger.Info("processing file", "path", c.path)

	// =========================================================================
	// STEP 1: PARSE
	// =========================================================================

	opts := []nem12.Option{nem12.WithLogger(c.logger)}
	if c.metrics != nil {
		opts = append(opts, nem12.WithObserver(c.metrics))
	}
	parsed := nem12.NewParser(opts...).ParseFile(c.path)

	result.Reads = parsed.Reads
	result.Stats.Lines = parsed.Lines
	result.Stats.MeterReads = len(parsed.Reads)
	result.Stats.Volumes = parsed.VolumeCount()

	if parsed.Err != nil {
		result.Error = parsed.Err
		return result
	}
	if parsed.Empty() {
		c.logger.Warn("file is empty, no meter reads produced")
	}

	// =========================================================================
	// STEP 2: EXPORT
	// =========================================================================

	outputPath, err := c.writeOutput(parsed.Reads)
	if err != nil {
		result.Error = fmt.Errorf("failed to export: %w", err)
		return result
	}
	result.OutputFile = outputPath
	if outputPath != "" {
		c.logger.Info("wrote output", "output", outputPath)
	}

	// =========================================================================
	// STEP 3: ARCHIVE
	// =========================================================================
	// Archive failures are logged but do not fail the file: the export has
	// already been written.

	if c.config.ArchiveOnSuccess {
		archived, err := c.archiveFiles(outputPath)
		if err != nil {
			c.logger.Warn("failed to archive files", "error", err)
		}
		result.ArchivedFile = archived
	}

	result.Success = true
	c.logger.Debug("file complete",
		"meter_reads", result.Stats.MeterReads,
		"volumes", result.Stats.Volumes,
	)
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// writeOutput exports reads in the configured format and returns the path
// written, or "" for FormatNone.
func (c *Converter) writeOutput(reads []*nem12.MeterRead) (string, error) {
	var ext string
	switch c.config.OutputFormat {
	case config.FormatNone:
		return "", nil
	case config.FormatXML:
		ext = ".xml"
	case config.FormatXLSX:
		ext = ".xlsx"
	default:
		return "", fmt.Errorf("unsupported output format %q", c.config.OutputFormat)
	}

	if err := os.MkdirAll(c.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := utils.GenerateOutputFileName(c.config.OutputNameFormat,
		map[string]string{"original": utils.BaseName(c.path)}, ext)
	outputPath := filepath.Join(c.config.OutputDir, name)

	if c.config.OutputFormat == config.FormatXLSX {
		if err := xlsxwriter.Save(outputPath, reads); err != nil {
			return "", err
		}
		return outputPath, nil
	}

	opts := xmlwriter.DefaultGenerateOptions()
	opts.VolumeNumberingGlobal = c.config.XMLGlobalVolumeNumbering
	opts.RootAttributes = []xml.Attr{{Name: xml.Name{Local: "source"}, Value: filepath.Base(c.path)}}
	doc, err := xmlwriter.GenerateWithOptions(reads, opts)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(outputPath, doc, 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	return outputPath, nil
}

// archiveFiles moves the input to the input archive and copies the export,
// if any, to the output archive.
func (c *Converter) archiveFiles(outputPath string) (string, error) {
	fm := utils.NewFileManager(c.config.InputDir, c.config.OutputDir,
		c.config.InputArchiveDir, c.config.OutputArchiveDir)

	if outputPath != "" {
		if _, err := fm.ArchiveOutputFile(outputPath); err != nil {
			return "", err
		}
	}

	archived, err := fm.ArchiveInputFile(c.path)
	if err != nil {
		return "", err
	}
	c.logger.Debug("archived input", "archive", archived)
	return archived, nil
}

// record reports the result to the metrics registry.
func (c *Converter) record(result Result) {
	if c.metrics == nil {
		return
	}
	outcome := metrics.OutcomeOK
	switch {
	case !result.Success:
		outcome = metrics.OutcomeFailed
	case result.Stats.Lines == 0:
		outcome = metrics.OutcomeEmpty
	}
	c.metrics.ObserveFile(outcome, result.Stats.MeterReads, result.Stats.Volumes, result.Stats.ProcessingTime)
}
