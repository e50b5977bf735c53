package s3wire

import "context"

// Handle is an in-flight operation started by Async. It is resolved at most
// once; Wait and Done may be called from any goroutine.
type Handle[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	value  T
	err    error
}

// Async runs fn on a background goroutine and returns a cancelable handle,
// bridging the blocking operation surface to concurrent callers. Canceling
// the handle aborts the in-flight request through its context, which
// releases the underlying connection.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) *Handle[T] {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle[T]{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(h.done)
		defer cancel()
		h.value, h.err = fn(ctx)
	}()
	return h
}

// Wait blocks until the operation resolves and returns its result.
func (h *Handle[T]) Wait() (T, error) {
	<-h.done
	return h.value, h.err
}

// Done is closed when the operation has resolved.
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

// Cancel aborts the operation. Wait still returns, typically with a
// context.Canceled error.
func (h *Handle[T]) Cancel() { h.cancel() }
