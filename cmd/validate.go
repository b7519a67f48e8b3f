// =============================================================================
// NEM12 Parser - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   nem12 validate [files...]
//
// Parses each file without exporting or archiving it and reports every
// failure. The command fails if any file fails.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/nem12-parser/internal/config"
	"github.com/ginjaninja78/nem12-parser/internal/metrics"
	"github.com/ginjaninja78/nem12-parser/internal/nem12"
	"github.com/ginjaninja78/nem12-parser/internal/validation"
	"github.com/ginjaninja78/nem12-parser/pkg/utils"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Check NEM12 files without exporting them",
	Long: `The validate command parses each NEM12 file and reports whether it is
valid. Nothing is written or moved. With no arguments every file in
input_dir matching file_patterns is checked.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(out io.Writer, args []string) error {
	cfg := *mainConfig
	cfg.OutputFormat = config.FormatNone
	cfg.ArchiveOnSuccess = false

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	files, err := resolveInputFiles(fm, &cfg, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No NEM12 files found in the input directory.")
		return nil
	}

	var failures []error
	for _, result := range processFiles(files, &cfg, metrics.New()) {
		name := filepath.Base(result.FilePath)
		if result.Success {
			fmt.Fprintf(out, "  ✓ %s: valid (%d meter reads, %d volumes)\n",
				name, result.Stats.MeterReads, result.Stats.Volumes)
			continue
		}
		failures = append(failures, fmt.Errorf("%s: %s: %w", name, nem12.Kind(result.Error), result.Error))
		fmt.Fprintf(out, "  ✗ %s: %s\n", name, nem12.Kind(result.Error))
	}

	if len(failures) > 0 {
		fmt.Fprintf(out, "\n%s", validation.FormatErrors(failures))
		return fmt.Errorf("%d of %d file(s) failed validation", len(failures), len(files))
	}
	fmt.Fprintf(out, "All %d file(s) valid\n", len(files))
	return nil
}
