package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	domainagg "github.com/yungbote/focustube-backend/internal/domain/aggregates"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
)

func TestExecuteWriteObservesSuccessStatus(t *testing.T) {
	hooks := &spyHooks{}
	err := executeWrite(context.Background(), BaseDeps{
		Runner: &spyTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.success", func(_ dbctx.Context) error { return nil })
	if err != nil {
		t.Fatalf("executeWrite success: %v", err)
	}
	if len(hooks.Operations) != 1 || hooks.Operations[0].Status != "success" {
		t.Fatalf("unexpected operations: %+v", hooks.Operations)
	}
}

func TestExecuteWriteMapsTaggedErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code domainagg.ErrorCode
	}{
		{"validation", ValidationError("bad"), domainagg.CodeValidation},
		{"not_found", NotFoundError("gone"), domainagg.CodeNotFound},
		{"invariant", InvariantError("broken"), domainagg.CodeInvariantViolation},
		{"precondition", PreconditionError("short"), domainagg.CodePreconditionFailed},
		{"plain", errors.New("boom"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			err := executeWrite(context.Background(), BaseDeps{Runner: &spyTxRunner{}, Hooks: hooks}, "aggregate.test", func(_ dbctx.Context) error {
				return tc.err
			})
			if !domainagg.IsCode(err, tc.code) {
				t.Fatalf("want code %s, got %v", tc.code, err)
			}
			if hooks.Operations[0].Status != string(tc.code) {
				t.Fatalf("operation status: want=%s got=%s", tc.code, hooks.Operations[0].Status)
			}
		})
	}
}

func TestTaggedErrorMessageIsDetailOnly(t *testing.T) {
	err := MapError("op", InvariantError("session is invalid"))
	if got := domainagg.MessageOf(err); got != "session is invalid" {
		t.Fatalf("message: got=%q", got)
	}
}

func TestExecuteWriteWithRetryRecoversFromConflict(t *testing.T) {
	hooks := &spyHooks{}
	runner := &spyTxRunner{}
	calls := 0
	err := executeWriteWithRetry(context.Background(), BaseDeps{
		Runner:    runner,
		Hooks:     hooks,
		RetryBase: time.Millisecond,
		RetryMax:  time.Millisecond,
	}, "aggregate.test.retry", func(_ dbctx.Context) error {
		calls++
		if calls < 3 {
			return ConflictError("stale version")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("attempts: want=3 got=%d", calls)
	}
	if len(hooks.Retries) != 2 {
		t.Fatalf("retry hooks: want=2 got=%+v", hooks.Retries)
	}
	if len(hooks.Conflicts) != 0 {
		t.Fatalf("a recovered conflict must not count as a conflict failure: %+v", hooks.Conflicts)
	}
	if len(hooks.Operations) != 1 || hooks.Operations[0].Status != "success" {
		t.Fatalf("unexpected operations: %+v", hooks.Operations)
	}
}

func TestExecuteWriteWithRetryGivesUp(t *testing.T) {
	hooks := &spyHooks{}
	calls := 0
	err := executeWriteWithRetry(context.Background(), BaseDeps{
		Runner:      &spyTxRunner{},
		Hooks:       hooks,
		MaxAttempts: 3,
		RetryBase:   time.Millisecond,
		RetryMax:    time.Millisecond,
	}, "aggregate.test.exhausted", func(_ dbctx.Context) error {
		calls++
		return ConflictError("stale version")
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("attempts: want=3 got=%d", calls)
	}
	if len(hooks.Conflicts) != 1 {
		t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
	}
}

func TestExecuteWriteWithRetryDoesNotRetryInvariant(t *testing.T) {
	calls := 0
	err := executeWriteWithRetry(context.Background(), BaseDeps{Runner: &spyTxRunner{}}, "aggregate.test.invariant", func(_ dbctx.Context) error {
		calls++
		return InvariantError("terminal")
	})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) || calls != 1 {
		t.Fatalf("want one invariant attempt, got calls=%d err=%v", calls, err)
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != "success" {
		t.Fatalf("nil status: want=success got=%s", got)
	}
	if got := aggregateErrorStatus(ConflictError("x")); got != string(domainagg.CodeConflict) {
		t.Fatalf("conflict status: got=%s", got)
	}
	if got := aggregateErrorStatus(context.DeadlineExceeded); got != string(domainagg.CodeRetryable) {
		t.Fatalf("deadline status: got=%s", got)
	}
	if got := aggregateErrorStatus(errors.New("UNIQUE constraint failed: focus_session.owner_id")); got != string(domainagg.CodeConflict) {
		t.Fatalf("sqlite unique status: got=%s", got)
	}
}

type spyTxRunner struct{}

func (*spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) {
	h.Conflicts = append(h.Conflicts, name)
}

func (h *spyHooks) IncRetry(name string) {
	h.Retries = append(h.Retries, name)
}
