package focus

import (
	"time"

	types "github.com/yungbote/focustube-backend/internal/domain"
)

// ExpireRecovery invalidates s when its recovery window has lapsed. It must
// run before any other rule on every mutating call.
func ExpireRecovery(s *types.FocusSession, now time.Time) bool {
	if s == nil || !s.RecoveryActive || s.RecoveryWindowEndsAt == nil {
		return false
	}
	if !now.After(*s.RecoveryWindowEndsAt) {
		return false
	}
	Invalidate(s, types.InvalidReasonTopicMismatch)
	return true
}

// Invalidate moves s to INVALID and closes any recovery window. The recovery
// count is kept as history.
func Invalidate(s *types.FocusSession, reason string) {
	s.Status = types.SessionStatusInvalid
	s.InvalidReason = reason
	s.RecoveryActive = false
	s.RecoveryWindowEndsAt = nil
}

// Reset is the manual invalidation path; it also zeroes the recovery count.
func Reset(s *types.FocusSession) {
	Invalidate(s, types.InvalidReasonManualReset)
	s.RecoveryCount = 0
}

// ApplyVerdict folds a verdict for videoID into an ARMED or RUNNING session.
func (p Policy) ApplyVerdict(s *types.FocusSession, videoID string, v types.Verdict, now time.Time) {
	s.ActiveVideoID = videoID
	switch s.Status {
	case types.SessionStatusArmed:
		if v.Valid() {
			s.Status = types.SessionStatusRunning
			start := now
			s.StartTime = &start
		}
	case types.SessionStatusRunning:
		if v.Valid() {
			if s.RecoveryActive {
				s.RecoveryActive = false
				s.RecoveryWindowEndsAt = nil
			}
			return
		}
		if s.RecoveryActive {
			return
		}
		if s.RecoveryCount >= p.MaxRecoveries {
			Invalidate(s, types.InvalidReasonTopicMismatch)
			return
		}
		ends := now.Add(p.RecoveryWindow)
		s.RecoveryActive = true
		s.RecoveryWindowEndsAt = &ends
		s.RecoveryCount++
	}
}
