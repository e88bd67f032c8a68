package aggregates

import (
	"context"
	"time"

	types "github.com/yungbote/focustube-backend/internal/domain"
)

var FocusCompletionAggregateContract = Contract{
	Name:             "Focus.CompletionAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	Concurrency:      ConcurrencyTransactional,
	Notes:            "Commits session completion, user counters, streaks and achievement unlocks in one transaction.",
}

// FocusCompletionAggregate finalizes RUNNING sessions.
//
// Write method failures return *aggregates.Error with codes:
// CodeNotFound, CodeInvariantViolation (not RUNNING), CodePreconditionFailed
// (insufficient focus time), CodeConflict, CodeRetryable, CodeInternal.
type FocusCompletionAggregate interface {
	Aggregate

	Complete(ctx context.Context, in CompleteSessionInput) (CompleteSessionResult, error)
}

type CompleteSessionInput struct {
	Ref SessionRef
	// Zone used for calendar-day and time-of-day facts when the owner has none.
	DefaultLocation *time.Location
}

type CompleteSessionResult struct {
	Session types.FocusSession
	User    types.User
	Reward  types.CompletionReward
	// Unlocked lists achievements unlocked by this completion.
	Unlocked []types.Achievement
	// AlreadyCompleted is set when the call found the session completed and
	// changed nothing.
	AlreadyCompleted bool
}
