package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains authorization metrics.
type Metrics struct {
	// evaluationTotal counts policy evaluations by result.
	evaluationTotal *prometheus.CounterVec

	// evaluationDuration measures policy evaluation duration.
	evaluationDuration prometheus.Histogram

	// decisionTotal counts pipeline decisions by outcome and reason.
	decisionTotal *prometheus.CounterVec

	// ruleMatchTotal counts allows per rule.
	ruleMatchTotal *prometheus.CounterVec

	// cacheHits counts decision cache hits.
	cacheHits prometheus.Counter

	// cacheMisses counts decision cache misses.
	cacheMisses prometheus.Counter
}

// NewMetrics creates new authorization metrics registered with the
// default registerer so they appear on the /metrics endpoint.
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

	m.evaluationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "evaluation_total",
			Help:      "Total number of policy evaluations",
		},
		[]string{"result"},
	)

	m.evaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "evaluation_duration_seconds",
			Help:      "Policy evaluation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	m.decisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "decision_total",
			Help:      "Total number of authorization decisions",
		},
		[]string{"decision", "reason"},
	)

	m.ruleMatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "rule_match_total",
			Help:      "Total number of allows per policy rule",
		},
		[]string{"rule"},
	)

	m.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "cache_hits_total",
			Help:      "Total number of decision cache hits",
		},
	)

	m.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "cache_misses_total",
			Help:      "Total number of decision cache misses",
		},
	)

	collectors := []prometheus.Collector{
		m.evaluationTotal,
		m.evaluationDuration,
		m.decisionTotal,
		m.ruleMatchTotal,
		m.cacheHits,
		m.cacheMisses,
	}
	for _, c := range collectors {
		_ = registerer.Register(c)
	}

	return m
}

// RecordEvaluation records a policy evaluation.
func (m *Metrics) RecordEvaluation(result string, duration time.Duration) {
	if m == nil || m.evaluationTotal == nil {
		return
	}
	m.evaluationTotal.WithLabelValues(result).Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}

// RecordDecision records a pipeline decision.
func (m *Metrics) RecordDecision(decision *Decision) {
	if m == nil || m.decisionTotal == nil || decision == nil {
		return
	}
	if decision.Allowed {
		m.decisionTotal.WithLabelValues("allowed", "").Inc()
		return
	}
	m.decisionTotal.WithLabelValues("denied", string(decision.Reason)).Inc()
}

// RecordRuleMatch records an allow for a specific rule.
func (m *Metrics) RecordRuleMatch(rule string) {
	if m == nil || m.ruleMatchTotal == nil {
		return
	}
	m.ruleMatchTotal.WithLabelValues(rule).Inc()
}

// RecordCacheHit records a decision cache hit.
func (m *Metrics) RecordCacheHit() {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.Inc()
}

// RecordCacheMiss records a decision cache miss.
func (m *Metrics) RecordCacheMiss() {
	if m == nil || m.cacheMisses == nil {
		return
	}
	m.cacheMisses.Inc()
}
