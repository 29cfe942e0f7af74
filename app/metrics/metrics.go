package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors recorded by controllers.
type Metrics struct {
	AvailabilityChecks *prometheus.CounterVec
	KitResolutions     *prometheus.CounterVec
	KitResolveSeconds  prometheus.Histogram
	BookingCommits     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AvailabilityChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gearrental",
			Name:      "availability_checks_total",
			Help:      "Standalone availability checks by outcome.",
		}, []string{"outcome"}),
		KitResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gearrental",
			Name:      "kit_resolutions_total",
			Help:      "Kit resolutions by outcome.",
		}, []string{"outcome"}),
		KitResolveSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gearrental",
			Name:      "kit_resolve_seconds",
			Help:      "Kit resolution latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		BookingCommits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gearrental",
			Name:      "booking_commits_total",
			Help:      "Booking commit attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(m.AvailabilityChecks, m.KitResolutions, m.KitResolveSeconds, m.BookingCommits)
	return m
}
