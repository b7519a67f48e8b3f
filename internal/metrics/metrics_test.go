package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRecord(t *testing.T) {
	m := New()

	for _, rt := range []string{"100", "200", "300", "300", "550", "", "900"} {
		m.ObserveRecord(rt)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsTotal.WithLabelValues("100")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recordsTotal.WithLabelValues("300")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recordsTotal.WithLabelValues("other")))
}

func TestObserveFile(t *testing.T) {
	m := New()

	m.ObserveFile(OutcomeOK, 2, 10, 5*time.Millisecond)
	m.ObserveFile(OutcomeFailed, 1, 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesTotal.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.meterReadsTotal))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.volumesTotal))
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveFile(OutcomeOK, 1, 1, 0)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.meterReadsTotal))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveFile(OutcomeEmpty, 0, 0, 0)
	path := filepath.Join(t.TempDir(), "nem12.prom")

	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `nem12_files_total{outcome="empty"} 1`)
}
