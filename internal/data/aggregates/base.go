package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/focustube-backend/internal/domain/aggregates"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
	"github.com/yungbote/focustube-backend/internal/platform/httpx"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

const (
	DefaultMaxAttempts = 4
	defaultRetryBase   = 15 * time.Millisecond
	defaultRetryMax    = 250 * time.Millisecond
)

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard

	// MaxAttempts bounds the read-decide-write cycles of optimistic writes.
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = DefaultMaxAttempts
	}
	if d.RetryBase <= 0 {
		d.RetryBase = defaultRetryBase
	}
	if d.RetryMax <= 0 {
		d.RetryMax = defaultRetryMax
	}
	return d
}

// TxRunner is the transaction boundary for aggregate writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.New(ctx).WithTx(tx))
	})
}

// executeWrite runs fn in one transaction and maps its failure to a coded
// aggregate error.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = opName(op)
	mapped := MapError(op, deps.Runner.InTx(ctx, fn))
	observe(deps, op, mapped, start)
	return mapped
}

// executeWriteWithRetry repeats the whole transaction while it fails with a
// conflict or a transient error, up to deps.MaxAttempts. fn must rebuild all
// of its state from the database on every attempt.
func executeWriteWithRetry(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = opName(op)

	var mapped error
	for attempt := 1; attempt <= deps.MaxAttempts; attempt++ {
		mapped = MapError(op, deps.Runner.InTx(ctx, fn))
		if mapped == nil || !domainagg.Retryable(mapped) || ctx.Err() != nil {
			break
		}
		if attempt == deps.MaxAttempts {
			deps.Log.Warn("aggregate write gave up after retries", "op", op, "attempts", attempt, "error", mapped)
			break
		}
		deps.Hooks.IncRetry(op)
		wait := httpx.JitterSleep(httpx.Backoff(attempt, deps.RetryBase, deps.RetryMax))
		if err := httpx.SleepContext(ctx, wait); err != nil {
			mapped = MapError(op, err)
			break
		}
	}
	observe(deps, op, mapped, start)
	return mapped
}

func opName(op string) string {
	op = strings.TrimSpace(op)
	if op == "" {
		return "aggregate.write"
	}
	return op
}

func observe(deps BaseDeps, op string, err error, start time.Time) {
	status := "success"
	if err != nil {
		status = aggregateErrorStatus(err)
		if domainagg.IsCode(err, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}

// normalizeAt pins an operation timestamp to UTC, defaulting to now.
func normalizeAt(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}
