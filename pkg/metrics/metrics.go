// Package metrics registers the service's Prometheus collectors.
// Path labels use the gin route template, so ids never reach a label.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtrack_http_requests_total",
			Help: "Total HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailtrack_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// IngestedRows counts reconciled rows by outcome: created, updated.
	IngestedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtrack_ingested_rows_total",
			Help: "Spreadsheet rows reconciled, by outcome",
		},
		[]string{"outcome"},
	)

	RepliesMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mailtrack_replies_matched_total",
		Help: "Pending mails resolved by an incoming reply",
	})

	OverdueAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mailtrack_overdue_alerts_total",
		Help: "Overdue alerts raised by the sweep",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mailtrack_sweep_duration_seconds",
		Help:    "Duration of one overdue sweep",
		Buckets: prometheus.DefBuckets,
	})

	SweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mailtrack_sweep_errors_total",
		Help: "Overdue sweeps that failed",
	})

	AlertListeners = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mailtrack_alert_listeners",
		Help: "Connected alert feed listeners",
	})
)

// Middleware records request count and latency per route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
