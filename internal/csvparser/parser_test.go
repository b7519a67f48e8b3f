package csvparser

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// ReadLines Tests
// =============================================================================

func TestReadLines_PreservesOrder(t *testing.T) {
	path := writeFile(t, "100,header\n200,1234567890,KWH\n300,20161113,15.5,A\n900,trailer\n")

	lines, err := ReadLines(path)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"100,header",
		"200,1234567890,KWH",
		"300,20161113,15.5,A",
		"900,trailer",
	}, lines)
}

func TestReadLines_CRLF(t *testing.T) {
	path := writeFile(t, "100,header\r\n900,trailer\r\n")

	lines, err := ReadLines(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"100,header", "900,trailer"}, lines)
}

func TestReadLines_NoTrailingNewline(t *testing.T) {
	path := writeFile(t, "100,header\n900,trailer")

	lines, err := ReadLines(path)

	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestReadLines_EmptyFile(t *testing.T) {
	path := writeFile(t, "")

	lines, err := ReadLines(path)

	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestReadLines_MissingFile(t *testing.T) {
	_, err := ReadLines(filepath.Join(t.TempDir(), "missing.csv"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLines_TooLong(t *testing.T) {
	_, err := Lines(strings.NewReader(strings.Repeat("x", MaxLineLength+1)))

	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := writeFile(t, "100,h\n900,t\n")

	lines, err := FileSource{}.Lines(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"100,h", "900,t"}, lines)
}

// =============================================================================
// SplitRecord Tests
// =============================================================================

func TestSplitRecord(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"300,20161113,15.5,A", []string{"300", "20161113", "15.5", "A"}},
		{"900", []string{"900"}},
		{"", []string{""}},
		{"200,1234567890,KWH,,", []string{"200", "1234567890", "KWH", "", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitRecord(tt.line))
		})
	}
}

func TestRecordType(t *testing.T) {
	assert.Equal(t, "100", RecordType("100,header"))
	assert.Equal(t, "900", RecordType("900"))
	assert.Equal(t, "1000", RecordType("1000,x"))
	assert.Equal(t, "", RecordType(""))
}
