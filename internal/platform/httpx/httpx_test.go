package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), true},
		{"429", statusErr(http.StatusTooManyRequests), true},
		{"503", statusErr(http.StatusServiceUnavailable), true},
		{"400", statusErr(http.StatusBadRequest), false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestBackoff(t *testing.T) {
	if got := Backoff(1, 50*time.Millisecond, time.Second); got != 50*time.Millisecond {
		t.Fatalf("attempt 1: %v", got)
	}
	if got := Backoff(3, 50*time.Millisecond, time.Second); got != 200*time.Millisecond {
		t.Fatalf("attempt 3: %v", got)
	}
	if got := Backoff(10, 50*time.Millisecond, time.Second); got != time.Second {
		t.Fatalf("capped: %v", got)
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "30")
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected cap, got %v", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 0); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
}
