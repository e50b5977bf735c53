package transport

import (
	"context"
	"net"
	"sync"
)

// connLimiter caps concurrently open connections. Releases are tied to
// connection close via wrapConn.
type connLimiter struct {
	mu      sync.Mutex
	limit   int
	current int
	waiters []chan struct{}
}

func newConnLimiter(limit int) *connLimiter {
	return &connLimiter{limit: limit}
}

func (l *connLimiter) acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		if l.limit <= 0 || l.current < l.limit {
			l.current++
			l.mu.Unlock()
			return nil
		}
		ch := make(chan struct{})
		l.waiters = append(l.waiters, ch)
		l.mu.Unlock()

		select {
		case <-ch:
			// slot may be available; re-check under the lock
		case <-ctx.Done():
			l.removeWaiter(ch)
			return ctx.Err()
		}
	}
}

func (l *connLimiter) release() {
	l.mu.Lock()
	if l.current > 0 {
		l.current--
	}
	if len(l.waiters) > 0 {
		waiters := l.waiters
		l.waiters = nil
		for _, w := range waiters {
			close(w)
		}
	}
	l.mu.Unlock()
}

func (l *connLimiter) currentConnections() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *connLimiter) wrapConn(conn net.Conn) net.Conn {
	return &limitedConn{Conn: conn, release: l.release}
}

func (l *connLimiter) removeWaiter(target chan struct{}) {
	l.mu.Lock()
	for i, ch := range l.waiters {
		if ch == target {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			break
		}
	}
	l.mu.Unlock()
}

type limitedConn struct {
	net.Conn
	release func()
}

func (c *limitedConn) Close() error {
	err := c.Conn.Close()
	if c.release != nil {
		c.release()
		c.release = nil
	}
	return err
}
