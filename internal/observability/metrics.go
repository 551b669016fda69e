package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger"

var (
	unitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Units of work processed, by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	unitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unit_duration_seconds",
			Help:      "Time from begin to commit or rollback of a unit of work",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"action"},
	)

	volumeMinorUnits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volume_minor_units_total",
			Help:      "Committed money movement in minor units, by ledger entry type",
		},
		[]string{"type"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// ObserveUnit records one finished unit. outcome is "committed" or an error kind.
func ObserveUnit(action, outcome string, duration time.Duration) {
	unitsTotal.WithLabelValues(action, outcome).Inc()
	unitDuration.WithLabelValues(action).Observe(duration.Seconds())
}

func AddVolume(entryType string, minor int64) {
	if minor <= 0 {
		return
	}
	volumeMinorUnits.WithLabelValues(entryType).Add(float64(minor))
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	httpRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	httpRequestsTotal.WithLabelValues(method, path, code).Inc()
}
