package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine-facing prometheus collectors
type Metrics struct {
	Computations    *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	ComputeDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "computations_total",
			Help:      "Instrument analyses run by the engine, by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "cache_lookups_total",
			Help:      "Analysis result lookups, by the tier that served them.",
		}, []string{"source"}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "analytics",
			Name:      "compute_duration_seconds",
			Help:      "Time to load and analyze one instrument.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Computations, m.CacheLookups, m.ComputeDuration)
	}
	return m
}
