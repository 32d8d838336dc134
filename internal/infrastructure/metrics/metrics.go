// Package metrics exposes the engine's prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	sequenceSteps  *prometheus.CounterVec
	sequenceRuns   *prometheus.CounterVec
	skippedRecords *prometheus.CounterVec
	priceRefresh   *prometheus.CounterVec
	referencePrice prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sequenceSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microlend",
			Name:      "sequence_steps_total",
			Help:      "Sequence step outcomes by sequence, step and outcome.",
		}, []string{"sequence", "step", "outcome"}),
		sequenceRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microlend",
			Name:      "sequence_runs_total",
			Help:      "Sequence runs by terminal status.",
		}, []string{"sequence", "status"}),
		skippedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microlend",
			Name:      "listing_skipped_records_total",
			Help:      "Records excluded from listings because their read failed.",
		}, []string{"record"}),
		priceRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "microlend",
			Name:      "price_feed_refresh_total",
			Help:      "Reference price refresh attempts by outcome.",
		}, []string{"outcome"}),
		referencePrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "microlend",
			Name:      "reference_price",
			Help:      "Current native coin reference price.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.sequenceSteps, m.sequenceRuns, m.skippedRecords, m.priceRefresh, m.referencePrice)
	}
	return m
}

func (m *Metrics) StepObserved(sequence, step, outcome string) {
	if m == nil {
		return
	}
	m.sequenceSteps.WithLabelValues(sequence, step, outcome).Inc()
}

func (m *Metrics) RunFinished(sequence, status string) {
	if m == nil {
		return
	}
	m.sequenceRuns.WithLabelValues(sequence, status).Inc()
}

func (m *Metrics) RecordSkipped(record string) {
	if m == nil {
		return
	}
	m.skippedRecords.WithLabelValues(record).Inc()
}

func (m *Metrics) PriceRefreshed(outcome string, price float64) {
	if m == nil {
		return
	}
	m.priceRefresh.WithLabelValues(outcome).Inc()
	m.referencePrice.Set(price)
}
