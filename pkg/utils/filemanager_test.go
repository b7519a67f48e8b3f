package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "input_archive"),
		filepath.Join(root, "output_archive"),
	)
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// =============================================================================
// Discovery Tests
// =============================================================================

func TestDiscoverInputFiles(t *testing.T) {
	fm := newTestManager(t)
	touch(t, filepath.Join(fm.InputDir, "b.csv"), "")
	touch(t, filepath.Join(fm.InputDir, "a.nem12"), "")
	touch(t, filepath.Join(fm.InputDir, "notes.txt"), "")
	require.NoError(t, os.Mkdir(filepath.Join(fm.InputDir, "dir.csv"), 0o755))

	files, err := fm.DiscoverInputFiles("*.csv", "*.nem12", "b.*")

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(fm.InputDir, "a.nem12"),
		filepath.Join(fm.InputDir, "b.csv"),
	}, files)
}

func TestDiscoverInputFiles_DefaultPattern(t *testing.T) {
	fm := newTestManager(t)
	touch(t, filepath.Join(fm.InputDir, "x.csv"), "")
	touch(t, filepath.Join(fm.InputDir, "y.nem12"), "")

	files, err := fm.DiscoverInputFiles()

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(fm.InputDir, "x.csv")}, files)
}

func TestDiscoverInputFiles_BadPattern(t *testing.T) {
	fm := newTestManager(t)

	_, err := fm.DiscoverInputFiles("[")

	assert.Error(t, err)
}

// =============================================================================
// Archival Tests
// =============================================================================

func TestArchiveInputFile(t *testing.T) {
	fm := newTestManager(t)
	src := filepath.Join(fm.InputDir, "meter.csv")
	touch(t, src, "100\n900\n")

	archived, err := fm.ArchiveInputFile(src)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.InputArchiveDir, "meter.csv"), archived)
	assert.NoFileExists(t, src)
	data, err := os.ReadFile(archived)
	require.NoError(t, err)
	assert.Equal(t, "100\n900\n", string(data))
}

func TestArchiveOutputFile(t *testing.T) {
	fm := newTestManager(t)
	src := filepath.Join(fm.OutputDir, "meter.xml")
	touch(t, src, "<nem12/>")

	archived, err := fm.ArchiveOutputFile(src)

	require.NoError(t, err)
	assert.FileExists(t, src)
	assert.FileExists(t, archived)
}

// =============================================================================
// Naming Tests
// =============================================================================

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("{original}_{uuid}", map[string]string{"original": "meter"}, ".xml")

	assert.Regexp(t, regexp.MustCompile(`^meter_[0-9a-f-]{36}\.xml$`), name)
}

func TestGenerateOutputFileName_KeepsExtension(t *testing.T) {
	assert.Equal(t, "fixed.XLSX", GenerateOutputFileName("fixed.XLSX", nil, ".xlsx"))
	assert.Equal(t, "fixed", GenerateOutputFileName("fixed", nil, ""))
}

func TestGenerateOutputFileName_Unique(t *testing.T) {
	a := GenerateOutputFileName("{uuid}", nil, ".xml")
	b := GenerateOutputFileName("{uuid}", nil, ".xml")

	assert.NotEqual(t, a, b)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "meter", BaseName("/data/in/meter.csv"))
	assert.Equal(t, "meter.2016", BaseName("meter.2016.nem12"))
	assert.Equal(t, "plain", BaseName("plain"))
}

// =============================================================================
// Report Tests
// =============================================================================

func TestWriteErrorLog(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog([]ErrorLogEntry{{
		Timestamp:    time.Now(),
		FileName:     "meter.csv",
		ErrorType:    "FieldValidationFailure",
		ErrorMessage: "NMI must be exactly 10 characters",
		LineNumber:   2,
		RecordType:   "200",
		FieldName:    "nmi",
		FieldValue:   "123",
	}}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, "Total Errors: 1")
	assert.Contains(t, s, "Line Number:    2")
	assert.Contains(t, s, "Record Type:    200")
	assert.Contains(t, s, "Value:          123")
}

func TestWriteErrorLog_NoEntries(t *testing.T) {
	path, err := WriteErrorLog(nil, t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

	path, err := WriteSummaryLog(ProcessingSummary{
		RunID:           "run-1",
		StartTime:       start,
		EndTime:         start.Add(2 * time.Second),
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		TotalMeterReads: 3,
		TotalVolumes:    9,
		ProcessedFiles:  []ProcessedFileInfo{{RunID: "file-a", InputFile: "a.csv", MeterReads: 3, Volumes: 9}},
		FailedFilesList: []FailedFileInfo{{RunID: "file-b", InputFile: "b.csv", ErrorType: "EmptyEnvelope", ErrorMessage: "expected header"}},
	}, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "processing_summary_20240115_143002.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, "Run ID:         run-1")
	assert.Contains(t, s, "Duration:       2s")
	assert.Contains(t, s, "Total Volumes:      9")
	assert.Contains(t, s, "Type:  EmptyEnvelope")
	assert.Contains(t, s, "Run ID:       file-a")
	assert.Contains(t, s, "Run:   file-b")
}
