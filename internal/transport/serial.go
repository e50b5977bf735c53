package transport

import (
	"context"
	"io"
	"sync"
)

// Serialize wraps a backend so at most one exchange is in flight at a time on
// an execution context: the slot is held from send until the response body is
// closed. Independent operations still complete in no guaranteed order beyond
// their order of admission.
func Serialize(next Backend) Backend {
	return &serialBackend{next: next, slot: make(chan struct{}, 1)}
}

type serialBackend struct {
	next Backend
	slot chan struct{}
}

func (s *serialBackend) Do(ctx context.Context, req *Request) (*Response, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	resp, err := s.next.Do(ctx, req)
	if err != nil {
		<-s.slot
		return nil, err
	}
	resp.Body = &releasingBody{ReadCloser: resp.Body, release: func() { <-s.slot }}
	return resp, nil
}

type releasingBody struct {
	io.ReadCloser
	release func()
	once    sync.Once
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}
