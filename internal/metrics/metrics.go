package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "allocation"

var (
	runCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Count of allocation runs by outcome.",
		},
		[]string{"outcome"},
	)
	liveMatches = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "live_matches",
			Help:      "Number of match rows after the latest successful allocation run.",
		},
	)
	optimizerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "optimizer_request_seconds",
			Help:      "Latency of calls to the optimizer engine.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint", "outcome"},
	)
	transitionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "match_transitions_total",
			Help:      "Count of match status transition attempts.",
		},
		[]string{"status", "outcome"},
	)
)

var registerMetrics sync.Once

// Register all metrics with the given registerer. Only the first call has effect.
func Register(reg prometheus.Registerer) {
	registerMetrics.Do(func() {
		reg.MustRegister(Collectors()...)
	})
}

// Collectors lists every collector this package owns.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{runCounter, liveMatches, optimizerLatency, transitionCounter}
}

// RecordRun counts an allocation run; outcome is "success" or an error kind.
func RecordRun(outcome string) {
	runCounter.WithLabelValues(outcome).Inc()
}

func SetLiveMatches(n int) {
	liveMatches.Set(float64(n))
}

func ObserveOptimizer(endpoint, outcome string, seconds float64) {
	optimizerLatency.WithLabelValues(endpoint, outcome).Observe(seconds)
}

func RecordTransition(status, outcome string) {
	transitionCounter.WithLabelValues(status, outcome).Inc()
}
