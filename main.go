// =============================================================================
// NEM12 Parser - Main Entry Point
// =============================================================================
//
// USAGE:
//   nem12 parse [files...]     - Parse NEM12 files and export meter reads
//   nem12 validate [files...]  - Parse NEM12 files without exporting
//   nem12 version              - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Parser core, exports, configuration, logging, metrics
//   - pkg/           : Shared file handling utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/nem12-parser/cmd"
)

func main() {
	cmd.Execute()
}
