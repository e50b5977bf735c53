// Package dispatch owns the retry policy. It executes signed requests
// through the backend capability, retrying transient failures for bodies
// that are safe to replay.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"s3wire/internal/metrics"
	"s3wire/internal/stream"
	"s3wire/internal/transport"
)

// DefaultRetries is the number of retries after the first attempt.
const DefaultRetries = 1

// Dispatcher drives one signed request to a final outcome. It is stateless
// across calls and safe for concurrent use.
type Dispatcher struct {
	Backend   transport.Backend
	Retries   int
	ChunkSize int

	// Limiter, when set, throttles outbound attempts.
	Limiter *rate.Limiter
	Logger  *slog.Logger
	Metrics *metrics.Set
	Tracer  trace.Tracer
}

// Execute sends the request, replaying the body on retry when the source
// allows it. One-shot bodies fail on the first error: a partially consumed
// stream cannot be resent without corrupting the payload. The last failure
// is surfaced after the retry budget is spent.
func (d *Dispatcher) Execute(ctx context.Context, req *transport.Request, body stream.Source) (*transport.Response, error) {
	tracer := d.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("s3wire")
	}
	ctx, span := tracer.Start(ctx, "s3wire.dispatch")
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("url.host", req.URL.Host),
	)
	defer span.End()

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()

	attempts := d.Retries + 1
	if body != nil && !body.Replayable() {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if d.Limiter != nil {
			if err := d.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		if attempt > 0 {
			if body != nil {
				if err := body.Reset(); err != nil {
					return nil, fmt.Errorf("rewind body for retry: %w", err)
				}
			}
			d.Metrics.ObserveRetry()
		}
		if body != nil {
			req.Body = stream.Chunked(body, d.ChunkSize)
		}

		start := time.Now()
		resp, err := d.Backend.Do(ctx, req)
		elapsed := time.Since(start)

		if err != nil {
			d.Metrics.ObserveRequest(req.Method, 0, elapsed)
			lastErr = err
			if attempt+1 < attempts && IsRetryable(err) {
				logger.DebugContext(ctx, "retrying after transport failure",
					"dispatch_id", id, "attempt", attempt+1, "error", err)
				continue
			}
			return nil, lastErr
		}

		d.Metrics.ObserveRequest(req.Method, resp.StatusCode, elapsed)
		if attempt+1 < attempts && RetryableStatus(resp.StatusCode) {
			logger.DebugContext(ctx, "retrying after retryable status",
				"dispatch_id", id, "attempt", attempt+1, "status", resp.StatusCode)
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
			continue
		}
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		return resp, nil
	}
	return nil, lastErr
}
