package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every ridertrack collector; the HTTP server exposes it on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// TicksTotal counts completed reconciliation ticks.
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ridertrack_ticks_total",
			Help: "Total number of reconciliation ticks.",
		},
	)

	// TickDuration records how long the two tick phases plus publishing take.
	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ridertrack_tick_duration_seconds",
			Help:    "Duration of a reconciliation tick.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// StatusTransitions counts status changes by edge.
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridertrack_status_transitions_total",
			Help: "Total number of rider status transitions.",
		},
		[]string{"from", "to"},
	)

	// Riders is the number of riders per status after the latest tick.
	Riders = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ridertrack_riders",
			Help: "Number of riders by status.",
		},
		[]string{"status"},
	)

	// DroppedMutations counts rider updates rejected during a tick.
	DroppedMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridertrack_dropped_mutations_total",
			Help: "Total number of rider mutations dropped during a tick.",
		},
		[]string{"reason"}, // reason: unknown_entity/invalid/other
	)

	// Notifications counts forwarded notifications by delivery result.
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridertrack_notifications_total",
			Help: "Total number of notifications forwarded for the selected rider.",
		},
		[]string{"result"}, // result: delivered/failed
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		TicksTotal,
		TickDuration,
		StatusTransitions,
		Riders,
		DroppedMutations,
		Notifications,
	)
}
