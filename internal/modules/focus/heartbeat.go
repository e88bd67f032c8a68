package focus

import (
	"time"

	types "github.com/yungbote/focustube-backend/internal/domain"
)

// HeartbeatOutcome describes what a single pulse did to the session.
type HeartbeatOutcome struct {
	Accepted      bool
	GainedSeconds int64
	Changed       bool
}

// wholeSeconds floors the interval [from, to] to seconds; negative spans are 0.
func wholeSeconds(from, to time.Time) int64 {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Heartbeat credits trusted focus time to a RUNNING session. An open hidden
// interval is accrued first so a missing "end" event still counts against the
// tab-away budget.
func (p Policy) Heartbeat(s *types.FocusSession, now time.Time) HeartbeatOutcome {
	var out HeartbeatOutcome
	if s.Status != types.SessionStatusRunning {
		return out
	}
	if p.AccrueOpenHidden(s, now) {
		out.Changed = true
		if s.Status != types.SessionStatusRunning {
			return out
		}
	}
	if s.LastHeartbeatAt == nil {
		at := now
		s.LastHeartbeatAt = &at
		out.Accepted = true
		out.Changed = true
		return out
	}
	elapsed := wholeSeconds(*s.LastHeartbeatAt, now)
	if elapsed <= 0 {
		return out
	}
	gain := elapsed
	if limit := int64(p.HeartbeatCap / time.Second); gain > limit {
		gain = limit
	}
	s.TotalFocusSeconds += gain
	at := now
	s.LastHeartbeatAt = &at
	out.Accepted = true
	out.GainedSeconds = gain
	out.Changed = true
	return out
}
