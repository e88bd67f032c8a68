package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOfSeesThroughWrapping(t *testing.T) {
	base := NewError(CodeInvariantViolation, "Focus.Session.Heartbeat", "session is not running", nil)
	wrapped := fmt.Errorf("handler: %w", base)
	if got := CodeOf(wrapped); got != CodeInvariantViolation {
		t.Fatalf("expected invariant_violation, got %q", got)
	}
	if !IsCode(wrapped, CodeInvariantViolation) {
		t.Fatalf("expected IsCode to match")
	}
	if MessageOf(wrapped) != "session is not running" {
		t.Fatalf("unexpected message %q", MessageOf(wrapped))
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(NewError(CodeConflict, "op", "version changed", nil)) {
		t.Fatalf("conflict should be retryable")
	}
	if !Retryable(Wrap(CodeRetryable, "op", errors.New("deadlock"))) {
		t.Fatalf("retryable should be retryable")
	}
	if Retryable(NewError(CodeValidation, "op", "bad topic", nil)) {
		t.Fatalf("validation should not be retryable")
	}
}

func TestErrorString(t *testing.T) {
	err := NewError(CodeNotFound, "Focus.Session.Reset", "session not found", nil)
	if err.Error() != "Focus.Session.Reset: session not found (not_found)" {
		t.Fatalf("unexpected string %q", err.Error())
	}
}
