package s3wire

import (
	"s3wire/internal/metrics"
	"s3wire/internal/transport"
)

// Backend is the capability every execution model reduces to: send one
// signed request, stream back the response. The dispatcher is written once
// against this interface.
type Backend = transport.Backend

// BackendRequest and BackendResponse are the wire-level exchange types a
// custom Backend handles.
type (
	BackendRequest  = transport.Request
	BackendResponse = transport.Response
)

// TransportOptions configure NewHTTPBackend.
type TransportOptions = transport.Options

// NewHTTPBackend builds the standard net/http backend. Buckets construct
// one implicitly; build one explicitly to share connections across buckets
// or to tune the connection cap.
func NewHTTPBackend(opts TransportOptions) Backend {
	return transport.NewHTTP(opts)
}

// SerializeBackend wraps a backend so at most one request is in flight at a
// time; the slot is held until the response body is closed. This is the
// cooperative single-threaded execution discipline.
func SerializeBackend(b Backend) Backend {
	return transport.Serialize(b)
}

// Metrics is the Prometheus collector set a Bucket records into.
type Metrics = metrics.Set

// NewMetrics creates a collector set on a private registry; expose it via
// its Handler method.
func NewMetrics() *Metrics { return metrics.New() }
