package monitoring_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/monitoring"
)

func TestObserveSummary(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitoring.NewMetrics(reg)

	summary := &domain.UsageSummary{
		Coalesced: []domain.PowerRecord{domain.NewAppRecord(10000, 5), domain.NewBucketRecord(domain.DrainIdle, 1)},
		Ranked:    []domain.PowerRecord{domain.NewAppRecord(10000, 5)},
		Excluded: []domain.Exclusion{
			{Record: domain.NewBucketRecord(domain.DrainIdle, 1), RuleID: "min-share"},
		},
	}
	m.ObserveSummary(3, summary, 2*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummariesTotal.WithLabelValues("ranked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExcludedTotal.WithLabelValues("min-share", "IDLE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MergedRecordsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RankedRecords))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SummaryDuration))

	count, err := testutil.GatherAndCount(reg, "prism_power_summaries_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestObserveSummaryNilSafe(t *testing.T) {
	var m *monitoring.Metrics
	assert.NotPanics(t, func() { m.ObserveSummary(1, &domain.UsageSummary{}, time.Millisecond) })

	m = monitoring.NewMetrics(nil)
	assert.NotPanics(t, func() { m.ObserveSummary(1, nil, time.Millisecond) })
}
