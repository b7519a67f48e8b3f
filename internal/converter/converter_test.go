package converter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/nem12-parser/internal/config"
	"github.com/ginjaninja78/nem12-parser/internal/metrics"
	"github.com/ginjaninja78/nem12-parser/internal/nem12"
	"github.com/ginjaninja78/nem12-parser/internal/xlsxwriter"
)

const validFile = `100,NEM12,201801211010,MYENRGY,URENRGY
200,1234567890,KWH
300,20161113,15.5,A
300,20161114,-7.25,E
200,0987654321,KWH
300,20161113,1,A
900
`

// =============================================================================
// Helpers
// =============================================================================

func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "input")
	cfg.OutputDir = filepath.Join(root, "output")
	cfg.InputArchiveDir = filepath.Join(root, "input_archive")
	cfg.OutputArchiveDir = filepath.Join(root, "output_archive")
	cfg.OutputNameFormat = "{original}"
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0o755))
	return cfg
}

func writeInput(t *testing.T, cfg *config.MainConfig, name, content string) string {
	t.Helper()
	path := filepath.Join(cfg.InputDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// Pipeline Tests
// =============================================================================

func TestRun_XML(t *testing.T) {
	cfg := testConfig(t)
	path := writeInput(t, cfg, "meter.csv", validFile)

	result := New(path, cfg, nil, nil).Run()

	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "meter.xml"), result.OutputFile)
	assert.Equal(t, 7, result.Stats.Lines)
	assert.Equal(t, 2, result.Stats.MeterReads)
	assert.Equal(t, 3, result.Stats.Volumes)
	assert.Positive(t, result.Stats.ProcessingTime)

	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `<nem12 source="meter.csv">`)
	assert.Contains(t, s, `<meterRead n="1" nmi="1234567890" energyUnit="KWH" total="8.25">`)
	assert.Contains(t, s, `<volume n="2" date="2016-11-14" quality="E">-7.25</volume>`)
}

func TestRun_XLSX(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputFormat = config.FormatXLSX
	path := writeInput(t, cfg, "meter.nem12", validFile)

	result := New(path, cfg, nil, nil).Run()

	require.NoError(t, result.Error)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "meter.xlsx"), result.OutputFile)

	f, err := excelize.OpenFile(result.OutputFile)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(xlsxwriter.SheetVolumes)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestRun_FormatNone(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputFormat = config.FormatNone
	path := writeInput(t, cfg, "meter.csv", validFile)

	result := New(path, cfg, nil, nil).Run()

	assert.True(t, result.Success)
	assert.Empty(t, result.OutputFile)
	assert.Len(t, result.Reads, 2)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRun_EmptyFile(t *testing.T) {
	cfg := testConfig(t)
	path := writeInput(t, cfg, "empty.csv", "")
	m := metrics.New()

	result := New(path, cfg, nil, m).Run()

	assert.True(t, result.Success)
	assert.Empty(t, result.Reads)
	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "nem12_files_total"))
}

func TestRun_Failure(t *testing.T) {
	cfg := testConfig(t)
	cfg.ArchiveOnSuccess = true
	content := strings.Replace(validFile, "300,20161113,1,A", "300,2016111,1,A", 1)
	path := writeInput(t, cfg, "bad.csv", content)

	result := New(path, cfg, nil, nil).Run()

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, nem12.ErrDateParse)
	assert.Empty(t, result.OutputFile)
	assert.Len(t, result.Reads, 2)
	assert.FileExists(t, path, "failed inputs stay in place")
}

func TestRun_FileNotFound(t *testing.T) {
	cfg := testConfig(t)

	result := New(filepath.Join(cfg.InputDir, "missing.csv"), cfg, nil, nil).Run()

	assert.ErrorIs(t, result.Error, nem12.ErrFileNotFound)
	assert.Equal(t, "FileNotFound", nem12.Kind(result.Error))
}

func TestRun_Archive(t *testing.T) {
	cfg := testConfig(t)
	cfg.ArchiveOnSuccess = true
	path := writeInput(t, cfg, "meter.csv", validFile)

	result := New(path, cfg, nil, nil).Run()

	require.True(t, result.Success)
	assert.Equal(t, filepath.Join(cfg.InputArchiveDir, "meter.csv"), result.ArchivedFile)
	assert.NoFileExists(t, path)
	assert.FileExists(t, result.ArchivedFile)
	assert.FileExists(t, filepath.Join(cfg.OutputArchiveDir, "meter.xml"))
	assert.FileExists(t, result.OutputFile)
}

func TestRun_Metrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputFormat = config.FormatNone
	good := writeInput(t, cfg, "good.csv", validFile)
	bad := writeInput(t, cfg, "bad.csv", "200,1234567890,KWH\n900\n")
	m := metrics.New()

	New(good, cfg, nil, m).Run()
	New(bad, cfg, nil, m).Run()

	textfile := filepath.Join(t.TempDir(), "nem12.prom")
	require.NoError(t, m.WriteTextfile(textfile))
	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `nem12_files_total{outcome="ok"} 1`)
	assert.Contains(t, s, `nem12_files_total{outcome="failed"} 1`)
	assert.Contains(t, s, `nem12_records_total{record_type="300"} 3`)
	assert.Contains(t, s, "nem12_volumes_total 3")
}

func TestRun_DistinctRunIDs(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputFormat = config.FormatNone
	path := writeInput(t, cfg, "meter.csv", validFile)

	a := New(path, cfg, nil, nil).Run()
	b := New(path, cfg, nil, nil).Run()

	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRun_XMLGlobalVolumeNumbering(t *testing.T) {
	cfg := testConfig(t)
	cfg.XMLGlobalVolumeNumbering = true
	path := writeInput(t, cfg, "meter.csv", validFile)

	result := New(path, cfg, nil, nil).Run()

	require.NoError(t, result.Error)
	data, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<volume n="3" date="2016-11-13" quality="A">1</volume>`)
}
