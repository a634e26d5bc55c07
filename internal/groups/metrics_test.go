package groups

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordReload(t *testing.T) {
	t.Parallel()

	m := NewMetricsWithRegisterer("test", prometheus.NewRegistry())

	m.RecordReload(true)
	m.RecordReload(true)
	m.RecordReload(false)
	m.SetGroupCount(7)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.reloadTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reloadTotal.WithLabelValues("failure")))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.groupsLoaded))
}

func TestMetricsNilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics

	require.NotPanics(t, func() {
		m.RecordReload(true)
		m.SetGroupCount(1)
	})
}

func TestDirectoryRecordsReloads(t *testing.T) {
	t.Parallel()

	m := NewMetricsWithRegisterer("test", prometheus.NewRegistry())
	d := NewDirectory(WithDirectoryMetrics(m))

	require.NoError(t, d.Reload([]byte(groupsYAML)))
	require.Error(t, d.Reload([]byte("bad: [yaml")))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.reloadTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reloadTotal.WithLabelValues("failure")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.groupsLoaded))
}
