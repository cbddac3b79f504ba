package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var labels = []string{"service", "method", "path", "status"}

type collectors struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	categories *prometheus.CounterVec
}

var (
	shared       *collectors
	registerOnce sync.Once
)

func newCollectors(namespace string) *collectors {
	return &collectors{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, labels),
		categories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_status_category_total",
			Help:      "Total number of responses by status category (2xx, 4xx, 5xx)",
		}, []string{"service", "category", "method", "path"}),
	}
}

// HTTPMetrics records request counts and latencies for one service
type HTTPMetrics struct {
	ServiceName string
	c           *collectors
}

// NewHTTPMetrics returns the collector for serviceName. Collectors are
// registered with the default registry once per process, so the namespace
// of the first call wins.
func NewHTTPMetrics(namespace, serviceName string) *HTTPMetrics {
	registerOnce.Do(func() {
		shared = newCollectors(namespace)
		prometheus.MustRegister(shared.requests, shared.duration, shared.categories)
	})
	return &HTTPMetrics{ServiceName: serviceName, c: shared}
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// Middleware records every request under its route pattern
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			code := strconv.Itoa(status)

			m.c.requests.WithLabelValues(m.ServiceName, method, path, code).Inc()
			if category := statusCategory(status); category != "" {
				m.c.categories.WithLabelValues(m.ServiceName, category, method, path).Inc()
			}
			m.c.duration.WithLabelValues(m.ServiceName, method, path, code).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// GetPrometheusHandler exposes the default registry
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
