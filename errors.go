package s3wire

import (
	"encoding/xml"
	"fmt"

	"s3wire/internal/sigv4"
)

// Errors surfaced by the signing layer.
var (
	// ErrHeaderValue reports a header value that cannot be canonicalized.
	ErrHeaderValue = sigv4.ErrHeaderValue

	// ErrMissingCredentials reports an empty access or secret key.
	ErrMissingCredentials = sigv4.ErrMissingCredentials

	// ErrExpiry reports a presign expiry outside (0, 604800] seconds.
	ErrExpiry = sigv4.ErrExpiry
)

// ServiceError is a non-2xx response decoded from the service's XML error
// body. Returned when the bucket runs in fail-on-error mode.
type ServiceError struct {
	Code       string `xml:"Code"`
	Message    string `xml:"Message"`
	Resource   string `xml:"Resource"`
	RequestID  string `xml:"RequestId"`
	StatusCode int    `xml:"-"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("s3wire: %s: %s (status %d, request id %s)",
		e.Code, e.Message, e.StatusCode, e.RequestID)
}

// ParseError reports a malformed XML body where the service's schema was
// expected. The raw body is kept for inspection.
type ParseError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("s3wire: malformed XML in response (status %d): %v", e.StatusCode, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError wraps a network-level failure that survived the retry
// policy.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("s3wire: transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// decodeServiceError parses the XML error schema into a ServiceError, or a
// ParseError when the body does not decode.
func decodeServiceError(status int, body []byte) error {
	var svcErr ServiceError
	if err := xml.Unmarshal(body, &svcErr); err != nil {
		return &ParseError{StatusCode: status, Body: body, Err: err}
	}
	svcErr.StatusCode = status
	return &svcErr
}
