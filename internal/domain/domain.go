package domain

import (
	"github.com/yungbote/focustube-backend/internal/domain/focus"
	"github.com/yungbote/focustube-backend/internal/domain/gamification"
	"github.com/yungbote/focustube-backend/internal/domain/user"
)

const (
	SessionStatusArmed     = focus.StatusArmed
	SessionStatusRunning   = focus.StatusRunning
	SessionStatusCompleted = focus.StatusCompleted
	SessionStatusInvalid   = focus.StatusInvalid

	InvalidReasonTopicMismatch    = focus.ReasonTopicMismatch
	InvalidReasonExcessiveTabAway = focus.ReasonExcessiveTabAway
	InvalidReasonPauseAbuse       = focus.ReasonPauseAbuse
	InvalidReasonShortsNotAllowed = focus.ReasonShortsNotAllowed
	InvalidReasonManualReset      = focus.ReasonManualReset

	DecisionValid   = focus.DecisionValid
	DecisionInvalid = focus.DecisionInvalid

	VerdictSourceSession = focus.SourceSession
	VerdictSourceCache   = focus.SourceCache
	VerdictSourceJudge   = focus.SourceJudge

	EventTabHiddenStart = focus.EventTabHiddenStart
	EventTabHiddenEnd   = focus.EventTabHiddenEnd
	EventPauseStart     = focus.EventPauseStart
	EventPauseEnd       = focus.EventPauseEnd
	EventShortsDetected = focus.EventShortsDetected
	EventVideoDetected  = focus.EventVideoDetected
	EventHeartbeat      = focus.EventHeartbeat

	ConditionTotalSessions = gamification.ConditionTotalSessions
	ConditionTotalMinutes  = gamification.ConditionTotalMinutes
	ConditionStreak        = gamification.ConditionStreak
	ConditionLongestStreak = gamification.ConditionLongestStreak
	ConditionEarlyBird     = gamification.ConditionEarlyBird
	ConditionNightOwl      = gamification.ConditionNightOwl
	ConditionWeekend       = gamification.ConditionWeekend
	ConditionPerfectDay    = gamification.ConditionPerfectDay

	DefaultFocusLengthMinutes = user.DefaultFocusLengthMinutes
)

var ActiveSessionStatuses = focus.ActiveStatuses

func IsLifecycleEventType(t string) bool { return focus.IsLifecycleEventType(t) }

type (
	FocusSession       = focus.Session
	Verdict            = focus.Verdict
	DecisionCacheEntry = focus.DecisionCacheEntry
	LifecycleEvent     = focus.LifecycleEvent
	CompletionReward   = focus.CompletionReward

	User = user.User

	Achievement     = gamification.Achievement
	UserAchievement = gamification.UserAchievement
)

// AllModels lists every table the service migrates.
func AllModels() []any {
	return []any{
		&User{},
		&FocusSession{},
		&DecisionCacheEntry{},
		&LifecycleEvent{},
		&Achievement{},
		&UserAchievement{},
	}
}
