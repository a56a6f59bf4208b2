package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.ObserveStage("constant", 3*time.Millisecond)
	m.ObserveStage("constant", 5*time.Millisecond)
	m.AddDropped("constant", 2)
	m.AddDropped("correlation", 1)
	m.AddDropped("correlation", 0)
	m.IncSubsets("exhaustive")
	m.IncSubsets("exhaustive")
	m.IncSubsets("sequential")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.featuresDropped.WithLabelValues("constant")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.featuresDropped.WithLabelValues("correlation")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.subsetsEvaluated.WithLabelValues("exhaustive")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"featsel_stage_duration_seconds",
		"featsel_features_dropped_total",
		"featsel_subsets_evaluated_total",
	}, names)
}

func TestWriteToTextfile(t *testing.T) {
	m := New()
	m.AddDropped("non_numeric", 3)

	path := filepath.Join(t.TempDir(), "featsel.prom")
	require.NoError(t, m.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `featsel_features_dropped_total{stage="non_numeric"} 3`))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStage("x", time.Second)
		m.AddDropped("x", 1)
		m.IncSubsets("x")
	})
	assert.Nil(t, m.Registry())
	assert.Error(t, m.WriteToTextfile(filepath.Join(t.TempDir(), "m.prom")))
}
