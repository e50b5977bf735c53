package s3wire

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAsyncResolves(t *testing.T) {
	h := Async(context.Background(), func(ctx context.Context) (string, error) {
		return "done", nil
	})
	v, err := h.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if v != "done" {
		t.Fatalf("unexpected value %q", v)
	}

	select {
	case <-h.Done():
	default:
		t.Fatal("Done must be closed after Wait returns")
	}
}

func TestAsyncSurfacesError(t *testing.T) {
	want := errors.New("boom")
	h := Async(context.Background(), func(ctx context.Context) (int, error) {
		return 0, want
	})
	if _, err := h.Wait(); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestAsyncCancelAbortsWork(t *testing.T) {
	started := make(chan struct{})
	h := Async(context.Background(), func(ctx context.Context) (struct{}, error) {
		close(started)
		<-ctx.Done()
		return struct{}{}, ctx.Err()
	})
	<-started
	h.Cancel()

	_, err := h.Wait()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAsyncParentContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	h := Async(ctx, func(ctx context.Context) (struct{}, error) {
		<-ctx.Done()
		return struct{}{}, ctx.Err()
	})
	if _, err := h.Wait(); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestAsyncRunsConcurrently(t *testing.T) {
	gate := make(chan struct{})
	first := Async(context.Background(), func(ctx context.Context) (int, error) {
		<-gate
		return 1, nil
	})
	second := Async(context.Background(), func(ctx context.Context) (int, error) {
		close(gate)
		return 2, nil
	})

	if v, err := second.Wait(); err != nil || v != 2 {
		t.Fatalf("unexpected second result %d %v", v, err)
	}
	if v, err := first.Wait(); err != nil || v != 1 {
		t.Fatalf("unexpected first result %d %v", v, err)
	}
}
