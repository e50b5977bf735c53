// Package metrics collects dispatch instrumentation on a self-contained
// Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set holds the collectors for one client. All methods are nil-safe so
// instrumentation can be left unconfigured.
type Set struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	retries  prometheus.Counter
	latency  *prometheus.HistogramVec
	bytes    *prometheus.CounterVec
}

// New creates a Set with a fresh registry and registers the collectors.
func New() *Set {
	reg := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "s3wire",
		Subsystem: "dispatch",
		Name:      "requests_total",
		Help:      "Total requests sent, partitioned by method and status code.",
	}, []string{"method", "code"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "s3wire",
		Subsystem: "dispatch",
		Name:      "retries_total",
		Help:      "Total retry attempts after a transient failure.",
	})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "s3wire",
		Subsystem: "dispatch",
		Name:      "request_duration_seconds",
		Help:      "Histogram of request latencies.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
	bytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "s3wire",
		Subsystem: "transfer",
		Name:      "bytes_total",
		Help:      "Total body bytes moved, partitioned by direction.",
	}, []string{"direction"})

	_ = reg.Register(requests)
	_ = reg.Register(retries)
	_ = reg.Register(latency)
	_ = reg.Register(bytes)

	return &Set{reg: reg, requests: requests, retries: retries, latency: latency, bytes: bytes}
}

// Handler serves the registry for scraping.
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for callers that aggregate.
func (s *Set) Registry() *prometheus.Registry {
	return s.reg
}

// ObserveRequest records one completed attempt. Code 0 marks a transport
// failure with no HTTP status.
func (s *Set) ObserveRequest(method string, code int, elapsed time.Duration) {
	if s == nil {
		return
	}
	s.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	s.latency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveRetry counts a scheduled retry.
func (s *Set) ObserveRetry() {
	if s == nil {
		return
	}
	s.retries.Inc()
}

// AddBytesSent accumulates uploaded body bytes.
func (s *Set) AddBytesSent(n int64) {
	if s == nil || n <= 0 {
		return
	}
	s.bytes.WithLabelValues("sent").Add(float64(n))
}

// AddBytesReceived accumulates downloaded body bytes.
func (s *Set) AddBytesReceived(n int64) {
	if s == nil || n <= 0 {
		return
	}
	s.bytes.WithLabelValues("received").Add(float64(n))
}
