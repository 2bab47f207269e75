package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportpipe_runs_total",
			Help: "Total number of report pipeline runs",
		},
		[]string{"type", "format", "status"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reportpipe_run_duration_seconds",
			Help:    "End-to-end report run time in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"type", "format"},
	)

	artifactBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reportpipe_artifact_bytes",
			Help:    "Rendered artifact size in bytes",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"type", "format"},
	)

	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportpipe_polls_total",
			Help: "Total number of scheduler poll cycles",
		},
		[]string{"status"},
	)

	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportpipe_deliveries_total",
			Help: "Total number of report delivery attempts",
		},
		[]string{"status"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordRun(reportType, format, status string, duration time.Duration, size int) {
	runsTotal.WithLabelValues(reportType, format, status).Inc()
	runDuration.WithLabelValues(reportType, format).Observe(duration.Seconds())
	if size > 0 {
		artifactBytes.WithLabelValues(reportType, format).Observe(float64(size))
	}
}

func RecordPoll(status string) {
	pollsTotal.WithLabelValues(status).Inc()
}

func RecordDelivery(success bool) {
	status := "sent"
	if !success {
		status = "failed"
	}
	deliveriesTotal.WithLabelValues(status).Inc()
}
