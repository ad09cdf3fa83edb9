package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "predict_requests_total", Help: "Prediction requests by status code"},
			[]string{"code"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "predict_duration_seconds", Help: "Prediction request latency", Buckets: []float64{0.0005, 0.001, 0.005, 0.02, 0.1, 0.5, 1}},
		),
	}
	m.registry.MustRegister(m.requests, m.duration)
	return m
}

// Observe is a gin middleware recording requests to the given routes, or to
// every route when none are given.
func (m *Metrics) Observe(routes ...string) gin.HandlerFunc {
	only := make(map[string]bool, len(routes))
	for _, route := range routes {
		only[route] = true
	}
	return func(c *gin.Context) {
		if len(only) > 0 && !only[c.FullPath()] {
			c.Next()
			return
		}
		begin := time.Now()
		c.Next()
		m.duration.Observe(time.Since(begin).Seconds())
		m.requests.WithLabelValues(strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
