package focus

import (
	"time"

	types "github.com/yungbote/focustube-backend/internal/domain"
)

func budgetExceeded(total int64, focusMinutes int, ratio float64) bool {
	return float64(total) > ratio*float64(focusMinutes*60)
}

// HiddenStart opens a hidden interval. A second start keeps the earlier one.
func HiddenStart(s *types.FocusSession, now time.Time) bool {
	if s.LastHiddenStart != nil {
		return false
	}
	at := now
	s.LastHiddenStart = &at
	return true
}

// HiddenEnd closes the open hidden interval and enforces the hidden budget.
func (p Policy) HiddenEnd(s *types.FocusSession, now time.Time) bool {
	if s.LastHiddenStart == nil {
		return false
	}
	s.TotalHiddenSeconds += wholeSeconds(*s.LastHiddenStart, now)
	s.HiddenEventCount++
	s.LastHiddenStart = nil
	p.enforceHiddenBudget(s)
	return true
}

func PauseStart(s *types.FocusSession, now time.Time) bool {
	if s.LastPauseStart != nil {
		return false
	}
	at := now
	s.LastPauseStart = &at
	return true
}

func (p Policy) PauseEnd(s *types.FocusSession, now time.Time) bool {
	if s.LastPauseStart == nil {
		return false
	}
	s.TotalPauseSeconds += wholeSeconds(*s.LastPauseStart, now)
	s.PauseEventCount++
	s.LastPauseStart = nil
	p.enforcePauseBudget(s)
	return true
}

// AccrueOpenHidden books elapsed time of a still-open hidden interval and
// restarts it at now. Open pauses are only booked by their end event.
func (p Policy) AccrueOpenHidden(s *types.FocusSession, now time.Time) bool {
	if s.LastHiddenStart == nil {
		return false
	}
	elapsed := wholeSeconds(*s.LastHiddenStart, now)
	if elapsed <= 0 {
		return false
	}
	s.TotalHiddenSeconds += elapsed
	at := now
	s.LastHiddenStart = &at
	p.enforceHiddenBudget(s)
	return true
}

func (p Policy) enforceHiddenBudget(s *types.FocusSession) {
	if s.Status == types.SessionStatusRunning && budgetExceeded(s.TotalHiddenSeconds, s.FocusLengthMinutes, p.HiddenBudgetRatio) {
		Invalidate(s, types.InvalidReasonExcessiveTabAway)
	}
}

func (p Policy) enforcePauseBudget(s *types.FocusSession) {
	if s.Status == types.SessionStatusRunning && budgetExceeded(s.TotalPauseSeconds, s.FocusLengthMinutes, p.PauseBudgetRatio) {
		Invalidate(s, types.InvalidReasonPauseAbuse)
	}
}

// ApplyLifecycleEvent dispatches a recorded client event. Accounting events
// only affect RUNNING sessions; banned content invalidates ARMED ones too.
func (p Policy) ApplyLifecycleEvent(s *types.FocusSession, eventType string, now time.Time) bool {
	if eventType == types.EventShortsDetected {
		if !s.IsActive() {
			return false
		}
		Invalidate(s, types.InvalidReasonShortsNotAllowed)
		return true
	}
	if s.Status != types.SessionStatusRunning {
		return false
	}
	switch eventType {
	case types.EventTabHiddenStart:
		return HiddenStart(s, now)
	case types.EventTabHiddenEnd:
		return p.HiddenEnd(s, now)
	case types.EventPauseStart:
		return PauseStart(s, now)
	case types.EventPauseEnd:
		return p.PauseEnd(s, now)
	default:
		return false
	}
}
