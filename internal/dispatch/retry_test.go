package dispatch

import (
	"context"
	"errors"
	"net/http"
	"syscall"
	"testing"
)

func TestRetryableStatus(t *testing.T) {
	cases := map[int]bool{
		http.StatusOK:                  false,
		http.StatusNotFound:            false,
		http.StatusBadRequest:          false,
		http.StatusRequestTimeout:      true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
	}
	for status, want := range cases {
		if got := RetryableStatus(status); got != want {
			t.Fatalf("status %d expected %v got %v", status, want, got)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Fatalf("nil error should not be retryable")
	}
	if IsRetryable(context.Canceled) {
		t.Fatalf("canceled context should not be retryable")
	}
	if !IsRetryable(context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded should retry")
	}
	retryable := []error{
		syscall.ECONNRESET,
		syscall.ECONNREFUSED,
		errors.New("timeout reading response"),
	}
	for _, err := range retryable {
		if !IsRetryable(err) {
			t.Fatalf("expected retryable for %v", err)
		}
	}
	if IsRetryable(errors.New("access denied")) {
		t.Fatalf("arbitrary error should not be retryable")
	}
}
