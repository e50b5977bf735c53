package s3wire

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"s3wire/internal/transport"
)

// Response is a classified, buffered operation result. In pass-through mode
// it may carry a non-2xx status with the raw error body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// execute dispatches a command and returns the buffered, classified result.
func (b *Bucket) execute(ctx context.Context, cmd *command) (*Response, error) {
	resp, err := b.dispatch(ctx, cmd)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	b.metrics.AddBytesReceived(int64(len(body)))
	return b.classify(resp.StatusCode, resp.Headers, body)
}

// executeStream dispatches a command and hands back the raw response for
// chunk-at-a-time consumption. Non-2xx responses are still buffered and
// classified, so a streaming caller never has to parse error bodies.
func (b *Bucket) executeStream(ctx context.Context, cmd *command) (*transport.Response, error) {
	resp, err := b.dispatch(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	classified, cerr := b.classify(resp.StatusCode, resp.Headers, body)
	if cerr != nil {
		return nil, cerr
	}
	// Pass-through mode: surface the raw response to the caller.
	return &transport.Response{
		StatusCode: classified.StatusCode,
		Headers:    classified.Headers,
		Body:       io.NopCloser(bytes.NewReader(classified.Body)),
	}, nil
}

func (b *Bucket) dispatch(ctx context.Context, cmd *command) (*transport.Response, error) {
	req, err := b.signedRequest(cmd)
	if err != nil {
		return nil, err
	}
	if cmd.body != nil && cmd.body.Len() > 0 {
		b.metrics.AddBytesSent(cmd.body.Len())
	}
	resp, err := b.dispatcher.Execute(ctx, req, cmd.body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &TransportError{Err: err}
	}
	return resp, nil
}

// classify applies the fail-on-error policy. 2xx is always success; outside
// that range the XML error body becomes a ServiceError unless the bucket
// passes errors through.
func (b *Bucket) classify(status int, headers http.Header, body []byte) (*Response, error) {
	if (status >= 200 && status < 300) || !b.failOnError {
		return &Response{StatusCode: status, Headers: headers, Body: body}, nil
	}
	if len(body) == 0 {
		// HEAD and friends carry no error body.
		return nil, &ServiceError{Code: http.StatusText(status), StatusCode: status}
	}
	return nil, decodeServiceError(status, body)
}
