package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/academic-standing/internal/core/domain"
)

// StandingMetrics records classification outcomes. It satisfies
// ports.BatchObserver.
type StandingMetrics struct {
	service string

	batchesTotal        *prometheus.CounterVec
	recordsTotal        *prometheus.CounterVec
	unclassifiableTotal *prometheus.CounterVec
	ruleHitsTotal       *prometheus.CounterVec
	batchRecords        *prometheus.HistogramVec
	batchDuration       *prometheus.HistogramVec
}

func NewStandingMetrics(service string, registerer prometheus.Registerer) *StandingMetrics {
	batchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "standing",
			Subsystem: "classifier",
			Name:      "batches_total",
			Help:      "Total classified batches by source.",
		},
		[]string{"service", "source"},
	)
	recordsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "standing",
			Subsystem: "classifier",
			Name:      "records_total",
			Help:      "Total classified records by resulting label.",
		},
		[]string{"service", "source", "standing"},
	)
	unclassifiableTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "standing",
			Subsystem: "classifier",
			Name:      "unclassifiable_records_total",
			Help:      "Records passed through without a label because a numeric field could not be parsed.",
		},
		[]string{"service", "source"},
	)
	ruleHitsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "standing",
			Subsystem: "classifier",
			Name:      "rule_hits_total",
			Help:      "Total warning rule hits by rule name.",
		},
		[]string{"service", "rule"},
	)
	batchRecords := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "standing",
			Subsystem: "classifier",
			Name:      "batch_records",
			Help:      "Distribution of records per batch.",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 20000},
		},
		[]string{"service", "source"},
	)
	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "standing",
			Subsystem: "classifier",
			Name:      "batch_duration_seconds",
			Help:      "Batch classification duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)

	registerer.MustRegister(batchesTotal, recordsTotal, unclassifiableTotal, ruleHitsTotal, batchRecords, batchDuration)

	return &StandingMetrics{
		service:             service,
		batchesTotal:        batchesTotal,
		recordsTotal:        recordsTotal,
		unclassifiableTotal: unclassifiableTotal,
		ruleHitsTotal:       ruleHitsTotal,
		batchRecords:        batchRecords,
		batchDuration:       batchDuration,
	}
}

func (m *StandingMetrics) ObserveBatch(summary domain.BatchSummary, duration time.Duration) {
	source := summary.Source
	if source == "" {
		source = "unknown"
	}
	m.batchesTotal.WithLabelValues(m.service, source).Inc()
	m.batchRecords.WithLabelValues(m.service, source).Observe(float64(summary.Records))
	m.batchDuration.WithLabelValues(m.service, source).Observe(duration.Seconds())

	labelled := summary.Records - summary.Unclassifiable
	if summary.Warnings > 0 {
		m.recordsTotal.WithLabelValues(m.service, source, "warning").Add(float64(summary.Warnings))
	}
	if passing := labelled - summary.Warnings; passing > 0 {
		m.recordsTotal.WithLabelValues(m.service, source, "none").Add(float64(passing))
	}
	if summary.Unclassifiable > 0 {
		m.unclassifiableTotal.WithLabelValues(m.service, source).Add(float64(summary.Unclassifiable))
	}
	for rule, hits := range summary.RuleHits {
		if hits > 0 {
			m.ruleHitsTotal.WithLabelValues(m.service, rule).Add(float64(hits))
		}
	}
}
