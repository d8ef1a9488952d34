package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps the Prometheus collectors for the HTTP surface.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadBytes     *prometheus.CounterVec
}

// InitMetrics registers the collectors with the default registry.
func InitMetrics() (*Metrics, error) {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "media_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		uploadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_upload_bytes_total",
			Help: "Bytes written to object storage by media type.",
		}, []string{"type"}),
	}

	for _, c := range []prometheus.Collector{m.requestsTotal, m.requestDuration, m.uploadBytes} {
		if err := prometheus.Register(c); err != nil {
			// Already registered is fine (happens in tests).
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return m, nil
}

// RecordUpload accounts one stored payload.
func (m *Metrics) RecordUpload(mediaType string, size int64) {
	m.uploadBytes.WithLabelValues(mediaType).Add(float64(size))
}

// Middleware observes every request by route template, not raw path, to
// keep label cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
