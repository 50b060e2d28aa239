package jobs

import "github.com/prometheus/client_golang/prometheus"

var (
	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hallboard_job_runs_total",
			Help: "Total background job runs",
		},
		[]string{"job"},
	)

	jobErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hallboard_job_errors_total",
			Help: "Total background job errors",
		},
		[]string{"job"},
	)

	jobSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hallboard_job_skips_total",
			Help: "Ticks skipped because the previous run was still in flight",
		},
		[]string{"job"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hallboard_job_duration_seconds",
			Help:    "Background job duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(jobRuns, jobErrors, jobSkips, jobDuration)
}
