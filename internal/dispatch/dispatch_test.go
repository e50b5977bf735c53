package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"s3wire/internal/stream"
	"s3wire/internal/transport"
)

type fakeBackend struct {
	calls     int
	failures  int
	failErr   error
	status    int
	bodyReads []string
}

func (b *fakeBackend) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	b.calls++
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		b.bodyReads = append(b.bodyReads, string(data))
	}
	if b.calls <= b.failures {
		if b.failErr != nil {
			return nil, b.failErr
		}
		return &transport.Response{
			StatusCode: http.StatusServiceUnavailable,
			Headers:    http.Header{},
			Body:       io.NopCloser(strings.NewReader("busy")),
		}, nil
	}
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	return &transport.Response{
		StatusCode: status,
		Headers:    http.Header{},
		Body:       io.NopCloser(strings.NewReader("ok")),
	}, nil
}

var timeoutErr = &timeoutNetError{}

type timeoutNetError struct{}

func (*timeoutNetError) Error() string   { return "dial tcp: i/o timeout" }
func (*timeoutNetError) Timeout() bool   { return true }
func (*timeoutNetError) Temporary() bool { return true }

func testReq(t *testing.T) *transport.Request {
	t.Helper()
	u, err := url.Parse("https://bucket.example.test/key")
	if err != nil {
		t.Fatal(err)
	}
	return &transport.Request{Method: http.MethodGet, URL: u, Headers: http.Header{}}
}

func TestRetryOnceThenSucceed(t *testing.T) {
	backend := &fakeBackend{failures: 1, failErr: timeoutErr}
	d := &Dispatcher{Backend: backend, Retries: DefaultRetries}
	resp, err := d.Execute(context.Background(), testReq(t), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if backend.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", backend.calls)
	}
}

func TestRetryBudgetExhausted(t *testing.T) {
	backend := &fakeBackend{failures: 2, failErr: timeoutErr}
	d := &Dispatcher{Backend: backend, Retries: DefaultRetries}
	_, err := d.Execute(context.Background(), testReq(t), nil)
	if err == nil {
		t.Fatalf("expected failure after two transport errors")
	}
	if backend.calls != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", backend.calls)
	}
}

func TestNonRetryableErrorFailsFast(t *testing.T) {
	backend := &fakeBackend{failures: 2, failErr: errors.New("certificate is not valid")}
	d := &Dispatcher{Backend: backend, Retries: DefaultRetries}
	_, err := d.Execute(context.Background(), testReq(t), nil)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if backend.calls != 1 {
		t.Fatalf("non-retryable error must not be retried, got %d attempts", backend.calls)
	}
}

func TestRetryableStatusRetried(t *testing.T) {
	backend := &fakeBackend{failures: 1}
	d := &Dispatcher{Backend: backend, Retries: DefaultRetries}
	resp, err := d.Execute(context.Background(), testReq(t), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.StatusCode != http.StatusOK || backend.calls != 2 {
		t.Fatalf("status %d after %d attempts", resp.StatusCode, backend.calls)
	}
}

func TestReplayableBodyResent(t *testing.T) {
	backend := &fakeBackend{failures: 1, failErr: timeoutErr}
	d := &Dispatcher{Backend: backend, Retries: DefaultRetries}
	req := testReq(t)
	req.Method = http.MethodPut
	body := stream.Bytes([]byte("object data"))
	if _, err := io.CopyN(io.Discard, body, 3); err != nil {
		t.Fatal(err)
	}
	resp, err := d.Execute(context.Background(), req, body)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if backend.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", backend.calls)
	}
	// The retry must carry the full body from the start.
	if got := backend.bodyReads[len(backend.bodyReads)-1]; got != "object data" {
		t.Fatalf("retried body %q", got)
	}
}

func TestOneShotBodyNeverRetried(t *testing.T) {
	backend := &fakeBackend{failures: 1, failErr: timeoutErr}
	d := &Dispatcher{Backend: backend, Retries: DefaultRetries}
	req := testReq(t)
	req.Method = http.MethodPut
	body := stream.Reader(bytes.NewReader([]byte("one shot")), -1)
	_, err := d.Execute(context.Background(), req, body)
	if err == nil {
		t.Fatalf("expected failure for one-shot body")
	}
	if backend.calls != 1 {
		t.Fatalf("one-shot body was sent %d times", backend.calls)
	}
}

func TestCanceledContextNotRetried(t *testing.T) {
	backend := &fakeBackend{failures: 2, failErr: context.Canceled}
	d := &Dispatcher{Backend: backend, Retries: DefaultRetries}
	_, err := d.Execute(context.Background(), testReq(t), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if backend.calls != 1 {
		t.Fatalf("canceled request was retried: %d attempts", backend.calls)
	}
}
