package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// Options configure the HTTP backend.
type Options struct {
	// Timeout bounds a whole exchange; zero means no client-side timeout.
	Timeout time.Duration

	// InsecureTLS disables certificate verification.
	InsecureTLS bool

	// MaxConns caps concurrently open connections; zero means unlimited.
	MaxConns int

	// IdleTimeout closes idle connections after this duration.
	IdleTimeout time.Duration

	// ReapInterval periodically closes idle connections; zero disables the
	// reaper.
	ReapInterval time.Duration
}

// HTTPBackend executes requests over net/http.
type HTTPBackend struct {
	client     *http.Client
	limiter    *connLimiter
	reaperStop chan struct{}
	reaperDone sync.WaitGroup
	closeOnce  sync.Once
}

// NewHTTP builds the backend. The connection limiter is hooked into the
// dialer so the cap applies to every host the backend talks to.
func NewHTTP(opts Options) *HTTPBackend {
	limiter := newConnLimiter(opts.MaxConns)
	dialer := &net.Dialer{}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxConns,
		IdleConnTimeout:     opts.IdleTimeout,
		ForceAttemptHTTP2:   true,
	}
	if opts.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	transport.DialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
		if err := limiter.acquire(ctx); err != nil {
			return nil, err
		}
		conn, err := dialer.DialContext(ctx, network, address)
		if err != nil {
			limiter.release()
			return nil, err
		}
		return limiter.wrapConn(conn), nil
	}

	b := &HTTPBackend{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		limiter: limiter,
	}
	b.startReaper(opts.ReapInterval)
	return b
}

// Do implements Backend.
func (b *HTTPBackend) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), req.Body)
	if err != nil {
		return nil, err
	}
	for name, values := range req.Headers {
		if http.CanonicalHeaderKey(name) == "Host" {
			httpReq.Host = values[0]
			continue
		}
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if req.Body != nil {
		httpReq.ContentLength = req.ContentLength
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       resp.Body,
	}, nil
}

// OpenConnections reports connections currently tracked by the limiter.
func (b *HTTPBackend) OpenConnections() int {
	return b.limiter.currentConnections()
}

// Close stops background maintenance and drops idle connections.
func (b *HTTPBackend) Close() {
	b.closeOnce.Do(func() {
		if b.reaperStop != nil {
			close(b.reaperStop)
			b.reaperDone.Wait()
		}
		if transport, ok := b.client.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	})
}

func (b *HTTPBackend) startReaper(interval time.Duration) {
	if interval <= 0 {
		return
	}
	b.reaperStop = make(chan struct{})
	b.reaperDone.Add(1)
	go func() {
		defer b.reaperDone.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if transport, ok := b.client.Transport.(*http.Transport); ok {
					transport.CloseIdleConnections()
				}
			case <-b.reaperStop:
				return
			}
		}
	}()
}
