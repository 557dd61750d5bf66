package observability

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics("")
	b := NewMetrics("")

	a.RecordStage("CSP", "coarse", 10, 4, map[string]int{"dte": 6})

	assert.Equal(t, 10.0, testutil.ToFloat64(a.StageRecordsIn.WithLabelValues("CSP", "coarse")))
	assert.Equal(t, 6.0, testutil.ToFloat64(a.ExclusionsTotal.WithLabelValues("CSP", "coarse", "dte")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.StageRecordsIn.WithLabelValues("CSP", "coarse")))
}

func TestMetrics_RecordScan(t *testing.T) {
	m := NewMetrics("test")

	m.RecordScan("WHEEL", "success", 0.02, 7, 1735689600)
	m.RecordScan("WHEEL", "error", 0.01, 0, 1735689700)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScanRunsTotal.WithLabelValues("WHEEL", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScanRunsTotal.WithLabelValues("WHEEL", "error")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.OpportunitiesRanked.WithLabelValues("WHEEL")))
	assert.Equal(t, 1735689600.0, testutil.ToFloat64(m.LastSuccessfulScan))
}

func TestMetrics_DataQualityAndDB(t *testing.T) {
	m := NewMetrics("")

	m.RecordDataQuality(map[string]int{"bid": 12, "ask_half": 2}, 3, 5)
	m.RecordDBQuery("postgres", "insert_opportunities", 0.003, nil)
	m.RecordDBQuery("postgres", "insert_opportunities", 0.004, errors.New("boom"))

	assert.Equal(t, 12.0, testutil.ToFloat64(m.PriceSourceTotal.WithLabelValues("bid")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IVSubstitutedTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.LowConfidenceTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert_opportunities")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics("")
	m.RecordScan("CSP", "success", 0.5, 3, 1)

	path := filepath.Join(t.TempDir(), "scan.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "options_income_lab_pipeline_scan_runs_total"))
}
