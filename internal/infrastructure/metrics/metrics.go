// Package metrics exposes the engine's Prometheus metrics on a private registry.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metric names without the namespace prefix.
const (
	MetricFilingPacksTotal      = "filing_packs_total"
	MetricFilingPackDuration    = "filing_pack_duration_seconds"
	MetricTransactionsProcessed = "transactions_processed_total"
	MetricComplianceAlerts      = "compliance_alerts_total"
)

// Outcome labels for filing packs.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Config holds metrics configuration.
type Config struct {
	Namespace        string
	HistogramBuckets []float64
}

// DefaultConfig returns the default namespace and buckets.
func DefaultConfig() Config {
	return Config{
		Namespace:        "taxengine",
		HistogramBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}
}

// EngineMetrics records filing pack activity. A nil *EngineMetrics is valid
// and records nothing.
type EngineMetrics struct {
	registry *prometheus.Registry

	packsTotal   *prometheus.CounterVec
	packDuration prometheus.Histogram
	transactions prometheus.Counter
	alerts       *prometheus.CounterVec
}

// New creates the metrics on a fresh registry.
func New(cfg Config) *EngineMetrics {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultConfig().Namespace
	}
	if len(cfg.HistogramBuckets) == 0 {
		cfg.HistogramBuckets = DefaultConfig().HistogramBuckets
	}

	m := &EngineMetrics{
		registry: prometheus.NewRegistry(),
		packsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      MetricFilingPacksTotal,
				Help:      "Filing packs built, by regime and outcome.",
			},
			[]string{"regime", "outcome"},
		),
		packDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      MetricFilingPackDuration,
				Help:      "Time to build one filing pack.",
				Buckets:   cfg.HistogramBuckets,
			},
		),
		transactions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      MetricTransactionsProcessed,
				Help:      "Transactions passed through the reconciler.",
			},
		),
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      MetricComplianceAlerts,
				Help:      "Compliance alerts raised, by severity.",
			},
			[]string{"severity"},
		),
	}
	m.registry.MustRegister(m.packsTotal, m.packDuration, m.transactions, m.alerts)
	return m
}

// ObservePack records one pack build.
func (m *EngineMetrics) ObservePack(regime, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.packsTotal.WithLabelValues(regime, outcome).Inc()
	m.packDuration.Observe(elapsed.Seconds())
}

// AddTransactions counts transactions processed.
func (m *EngineMetrics) AddTransactions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.transactions.Add(float64(n))
}

// IncAlert counts one compliance alert.
func (m *EngineMetrics) IncAlert(severity string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(severity).Inc()
}

// Registry returns the private registry for scraping or tests.
func (m *EngineMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteText writes every metric in the Prometheus text format.
func (m *EngineMetrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
