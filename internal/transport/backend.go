// Package transport defines the backend capability the dispatcher is written
// against, and provides the HTTP implementation plus the serialized wrapper
// for single-operation-at-a-time execution.
package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Request is a fully signed exchange ready to send. ContentLength -1 marks a
// body of unknown length, transferred with chunked encoding.
type Request struct {
	Method        string
	URL           *url.URL
	Headers       http.Header
	Body          io.Reader
	ContentLength int64
}

// Response is the raw outcome of one send. Body streams from the wire and
// must be closed by the consumer.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       io.ReadCloser
}

// Backend sends one signed request and returns the raw response. This is the
// only primitive the execution models differ in; everything above it is
// written once.
type Backend interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}
