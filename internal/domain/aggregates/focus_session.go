package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/focustube-backend/internal/domain"
)

var FocusSessionAggregateContract = Contract{
	Name:             "Focus.SessionAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	Concurrency:      ConcurrencyOptimisticVersion,
	Notes:            "Owns session status, recovery, heartbeat and abuse accounting. Lazy recovery expiry runs first on every write.",
}

// FocusSessionAggregate owns every session mutation short of completion.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation, CodeRetryable, CodeInternal.
// Terminal transitions caused by time windows or abuse budgets are not
// errors; they are visible on the returned session.
type FocusSessionAggregate interface {
	Aggregate

	// Start creates an ARMED session; CodeConflict when the owner already has an active one.
	Start(ctx context.Context, in StartFocusSessionInput) (StartFocusSessionResult, error)

	// Refresh applies lazy recovery expiry and returns the current row.
	Refresh(ctx context.Context, ref SessionRef) (types.FocusSession, error)

	// ApplyVerdict folds an already resolved verdict into the session.
	ApplyVerdict(ctx context.Context, in ApplyVerdictInput) (ApplyVerdictResult, error)

	// Heartbeat credits capped focus time to a RUNNING session.
	Heartbeat(ctx context.Context, ref SessionRef) (HeartbeatResult, error)

	// IngestLifecycleEvent records the event under its idempotency key and
	// applies it once.
	IngestLifecycleEvent(ctx context.Context, in LifecycleEventInput) (LifecycleEventResult, error)

	// Reset manually invalidates an active session.
	Reset(ctx context.Context, ref SessionRef) (ResetResult, error)
}

// SessionRef addresses one owner's session at a point in time.
type SessionRef struct {
	SessionID uuid.UUID
	OwnerID   uuid.UUID
	At        time.Time
}

type StartFocusSessionInput struct {
	OwnerID            uuid.UUID
	Topic              string
	FocusLengthMinutes int
	At                 time.Time
}

type StartFocusSessionResult struct {
	Session types.FocusSession
}

type ApplyVerdictInput struct {
	Ref     SessionRef
	VideoID string
	Verdict types.Verdict
}

type ApplyVerdictResult struct {
	Session types.FocusSession
	// Verdict actually applied; a verdict already stored for the video wins.
	Verdict types.Verdict
	// ShortCircuited is set when the session was (or just became) INVALID
	// and the verdict was not applied.
	ShortCircuited bool
}

type HeartbeatResult struct {
	Session       types.FocusSession
	Accepted      bool
	GainedSeconds int64
}

type LifecycleEventInput struct {
	Ref             SessionRef
	EventID         string
	Type            string
	ClientTimestamp *time.Time
}

type LifecycleEventResult struct {
	Session types.FocusSession
	// Duplicate is set when the event id was already recorded.
	Duplicate bool
	Applied   bool
}

type ResetResult struct {
	Session types.FocusSession
	Changed bool
}
