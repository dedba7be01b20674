package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HSouheill/taskreward_backend/models"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "taskreward",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskreward",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskreward",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ledgerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskreward",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Balance-changing operations by kind and outcome.",
		},
		[]string{"op", "outcome"},
	)

	imageUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskreward",
			Subsystem: "proofs",
			Name:      "image_uploads_total",
			Help:      "Proof image uploads to the image host.",
		},
		[]string{"success"},
	)

	sweptRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskreward",
			Subsystem: "cleanup",
			Name:      "records_deleted_total",
			Help:      "Records removed by the cleanup sweep.",
		},
		[]string{"collection"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerOps,
		imageUploads,
		sweptRecords,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}

			start := time.Now()
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := strings.ToUpper(c.Request().Method)

			httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordLedgerOp counts a balance-changing operation. A nil error is recorded as "ok".
func RecordLedgerOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ledgerOps.WithLabelValues(op, outcome).Inc()
}

func RecordImageUpload(success bool) {
	imageUploads.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func RecordSweep(res models.SweepResult) {
	sweptRecords.WithLabelValues("task_submissions").Add(float64(res.Submissions))
	sweptRecords.WithLabelValues("balance_history").Add(float64(res.History))
	sweptRecords.WithLabelValues("withdraw_requests").Add(float64(res.Withdrawals))
}
