package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/renjie/prism-power/pkg/core/domain"
)

const namespace = "prism_power"

// Metrics 排行服务的指标集合
// 所有方法对 nil 接收者安全, 未配置指标时可以直接调用
type Metrics struct {
	// SummariesTotal counts summaries by outcome (ranked / not_available).
	SummariesTotal *prometheus.CounterVec

	// ExcludedTotal counts records rejected by inclusion rules.
	ExcludedTotal *prometheus.CounterVec

	// MergedRecordsTotal counts raw records folded into another record.
	MergedRecordsTotal prometheus.Counter

	// RankedRecords is the size of the last ranked list.
	RankedRecords prometheus.Gauge

	// SummaryDuration measures one coalesce + rank pass.
	SummaryDuration prometheus.Histogram
}

// NewMetrics registers the collectors on reg. A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SummariesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "summaries_total",
				Help:      "Total number of usage summaries by outcome",
			},
			[]string{"outcome"},
		),
		ExcludedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "excluded_records_total",
				Help:      "Total number of records rejected from the ranking",
			},
			[]string{"rule_id", "drain"},
		),
		MergedRecordsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merged_records_total",
				Help:      "Total number of raw records merged into a canonical owner",
			},
		),
		RankedRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ranked_records",
				Help:      "Number of records in the last ranked list",
			},
		),
		SummaryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "summary_duration_seconds",
				Help:      "Usage summary duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
	}
}

// ObserveSummary records one finished summary. inputCount is the raw record count.
func (m *Metrics) ObserveSummary(inputCount int, summary *domain.UsageSummary, elapsed time.Duration) {
	if m == nil || summary == nil {
		return
	}

	outcome := "ranked"
	if summary.NotAvailable {
		outcome = "not_available"
	}
	m.SummariesTotal.WithLabelValues(outcome).Inc()
	m.RankedRecords.Set(float64(len(summary.Ranked)))
	m.SummaryDuration.Observe(elapsed.Seconds())

	if len(summary.Coalesced) > 0 && inputCount > len(summary.Coalesced) {
		m.MergedRecordsTotal.Add(float64(inputCount - len(summary.Coalesced)))
	}
	for _, ex := range summary.Excluded {
		m.ExcludedTotal.WithLabelValues(ex.RuleID, ex.Record.Drain.String()).Inc()
	}
}
