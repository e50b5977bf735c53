package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

func testRequest(t *testing.T, raw, method string, body io.Reader, length int64) *Request {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return &Request{Method: method, URL: u, Headers: http.Header{}, Body: body, ContentLength: length}
}

func TestHTTPBackendDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-test"); got != "yes" {
			t.Errorf("missing request header, got %q", got)
		}
		w.Header().Set("ETag", "\"abc\"")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	backend := NewHTTP(Options{Timeout: 5 * time.Second})
	defer backend.Close()

	req := testRequest(t, srv.URL+"/key", http.MethodGet, nil, 0)
	req.Headers.Set("x-test", "yes")
	resp, err := backend.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if resp.Headers.Get("ETag") != "\"abc\"" {
		t.Fatalf("etag %q", resp.Headers.Get("ETag"))
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "payload" {
		t.Fatalf("body %q", body)
	}
}

func TestHTTPBackendHostOverride(t *testing.T) {
	var seenHost string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHost = r.Host
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	backend := NewHTTP(Options{})
	defer backend.Close()

	req := testRequest(t, srv.URL+"/", http.MethodGet, nil, 0)
	req.Headers.Set("Host", "bucket.example.test")
	resp, err := backend.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if seenHost != "bucket.example.test" {
		t.Fatalf("host header %q", seenHost)
	}
}

func TestHTTPBackendChunkedUpload(t *testing.T) {
	var transferEncoding []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transferEncoding = r.TransferEncoding
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	backend := NewHTTP(Options{})
	defer backend.Close()

	req := testRequest(t, srv.URL+"/key", http.MethodPut, strings.NewReader("streamed body"), -1)
	resp, err := backend.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if len(transferEncoding) == 0 || transferEncoding[0] != "chunked" {
		t.Fatalf("expected chunked transfer encoding, got %v", transferEncoding)
	}
}

func TestSerializeOneInFlight(t *testing.T) {
	var mu sync.Mutex
	inflight, peak := 0, 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inflight++
		if inflight > peak {
			peak = inflight
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		inflight--
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	backend := Serialize(NewHTTP(Options{}))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := testRequest(t, srv.URL+"/", http.MethodGet, nil, 0)
			resp, err := backend.Do(context.Background(), req)
			if err != nil {
				t.Errorf("do: %v", err)
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Fatalf("serialized backend had %d concurrent requests in flight", peak)
	}
}

func TestConnLimiterCap(t *testing.T) {
	l := newConnLimiter(1)
	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.acquire(ctx); err == nil {
		t.Fatalf("second acquire should block until timeout")
	}

	l.release()
	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if got := l.currentConnections(); got != 1 {
		t.Fatalf("currentConnections = %d", got)
	}
}
