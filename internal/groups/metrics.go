package groups

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains group directory metrics.
type Metrics struct {
	// reloadTotal counts snapshot reloads by result.
	reloadTotal *prometheus.CounterVec

	// groupsLoaded tracks the size of the current snapshot.
	groupsLoaded prometheus.Gauge
}

// NewMetrics creates new group directory metrics registered with the
// default registerer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates a new Metrics instance with a custom
// registerer. Useful in tests to avoid duplicate registration.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "cordon"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{}

	m.reloadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "groups",
			Name:      "reload_total",
			Help:      "Total number of group snapshot reloads",
		},
		[]string{"result"},
	)

	m.groupsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "groups",
			Name:      "loaded",
			Help:      "Number of groups in the current snapshot",
		},
	)

	_ = registerer.Register(m.reloadTotal)
	_ = registerer.Register(m.groupsLoaded)

	return m
}

// RecordReload records a snapshot reload attempt.
func (m *Metrics) RecordReload(success bool) {
	if m == nil || m.reloadTotal == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.reloadTotal.WithLabelValues(result).Inc()
}

// SetGroupCount records the current snapshot size.
func (m *Metrics) SetGroupCount(count int) {
	if m == nil || m.groupsLoaded == nil {
		return
	}
	m.groupsLoaded.Set(float64(count))
}
