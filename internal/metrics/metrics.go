package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BackendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hallboard", Name: "backend_requests_total", Help: "Calls to remote services",
	}, []string{"service", "method", "code"})
	BackendDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hallboard", Name: "backend_request_seconds", Help: "Remote call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "method"})
	TrackerPoints = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hallboard", Name: "tracker_points", Help: "Points in the current tracker frame",
	})
	Banners = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hallboard", Name: "banners_total", Help: "Banner messages posted",
	}, []string{"kind"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hallboard", Name: "handler_errors_total", Help: "HTTP handler errors",
	})
)

func init() {
	prometheus.MustRegister(BackendRequests, BackendDuration, TrackerPoints, Banners, HandlerErrors)
}

func Handler() http.Handler { return promhttp.Handler() }

// ObserveBackend records one remote call; code 0 means the transport failed.
func ObserveBackend(service, method string, code int, d time.Duration) {
	c := "error"
	if code > 0 {
		c = strconv.Itoa(code)
	}
	BackendRequests.WithLabelValues(service, method, c).Inc()
	BackendDuration.WithLabelValues(service, method).Observe(d.Seconds())
}
