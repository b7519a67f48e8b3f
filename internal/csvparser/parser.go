// =============================================================================
// NEM12 Parser - Line Source
// =============================================================================
//
// This module reads NEM12 files from disk and hands the parser an ordered
// sequence of raw text lines. NEM12 records are comma-delimited with no
// quoting or escaping: a record is split on the delimiter and nothing else.
//
// FEATURES:
//   - LF and CRLF line endings
//   - Long lines up to MaxLineLength bytes
//   - Missing files are reported with an error matching fs.ErrNotExist
//
// =============================================================================

package csvparser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Delimiter separates fields within a record.
const Delimiter = ","

// MaxLineLength is the longest line ReadLines accepts.
const MaxLineLength = 1 << 20

// =============================================================================
// LINE READING
// =============================================================================

// ReadLines reads every line of the file at path in order.
//
// A missing file returns an error for which errors.Is(err, fs.ErrNotExist)
// holds. An empty file returns an empty, non-nil slice.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	lines, err := Lines(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// Lines reads every line from r. Line terminators (including a trailing
// carriage return) are stripped.
func Lines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineLength)

	lines := []string{}
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// SplitRecord splits a raw line into its fields. The first field is the
// record type identifier. Empty trailing fields are kept.
func SplitRecord(line string) []string {
	return strings.Split(line, Delimiter)
}

// RecordType returns the leading identifier of a raw line.
func RecordType(line string) string {
	if i := strings.Index(line, Delimiter); i >= 0 {
		return line[:i]
	}
	return line
}

// =============================================================================
// FILE SOURCE
// =============================================================================

// FileSource reads lines from the local filesystem.
type FileSource struct{}

// Lines implements nem12.LineSource.
func (FileSource) Lines(path string) ([]string, error) {
	return ReadLines(path)
}
