// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. Labels stay
// bounded: method, the registered Gin route (raw path only when nothing
// matched) and the status code.
package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of non-streaming HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// Conversation event streams stay open for as long as the chat widget
	// is, so they get their own histogram with minute-to-hour buckets.
	streamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_stream_duration_seconds",
		Help:    "How long event-stream clients stayed connected.",
		Buckets: []float64{1, 10, 30, 60, 300, 900, 1800, 3600, 7200},
	}, []string{"path"})

	requestsInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_inflight",
		Help: "HTTP requests currently being served, streams included.",
	})

	// Chat payloads are small; the meetings xlsx export is the largest body.
	responseSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "Size of HTTP responses in bytes.",
		Buckets: prometheus.ExponentialBuckets(256, 4, 9),
	}, []string{"method", "path"})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, streamDuration, requestsInflight, responseSize)
}

// Metrics instruments every request whose path is not in skipPaths.
func Metrics(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		requestsInflight.Inc()
		defer requestsInflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		method := c.Request.Method
		elapsed := time.Since(start).Seconds()

		requestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		if strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream") {
			streamDuration.WithLabelValues(route).Observe(elapsed)
		} else {
			requestDuration.WithLabelValues(method, route).Observe(elapsed)
		}
		if size := c.Writer.Size(); size >= 0 {
			responseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}
