package focus

import (
	types "github.com/yungbote/focustube-backend/internal/domain"
)

// CounterFor returns the single user counter a condition type reads. Unknown
// condition types report ok=false and can never unlock.
func CounterFor(u *types.User, conditionType string) (int, bool) {
	if u == nil {
		return 0, false
	}
	switch conditionType {
	case types.ConditionTotalSessions:
		return u.TotalSessions, true
	case types.ConditionTotalMinutes:
		return u.TotalFocusMinutes, true
	case types.ConditionStreak:
		return u.CurrentStreak, true
	case types.ConditionLongestStreak:
		return u.LongestStreak, true
	case types.ConditionEarlyBird:
		return u.EarlyBirdCount, true
	case types.ConditionNightOwl:
		return u.NightOwlCount, true
	case types.ConditionWeekend:
		return u.WeekendSessionCount, true
	case types.ConditionPerfectDay:
		return u.PerfectDayCount, true
	default:
		return 0, false
	}
}

// Qualifies reports whether u meets an active achievement's threshold.
func Qualifies(u *types.User, a *types.Achievement) bool {
	if a == nil || !a.IsActive {
		return false
	}
	counter, ok := CounterFor(u, a.ConditionType)
	return ok && counter >= a.Threshold
}

// Progress is the preview of one achievement for one user.
type Progress struct {
	Current   int     `json:"current"`
	Threshold int     `json:"threshold"`
	Percent   float64 `json:"percent"`
	Qualifies bool    `json:"qualifies"`
}

// ProgressOf uses the same counter mapping as Qualifies.
func ProgressOf(u *types.User, a *types.Achievement) Progress {
	counter, known := CounterFor(u, a.ConditionType)
	p := Progress{Current: counter, Threshold: a.Threshold, Qualifies: Qualifies(u, a)}
	switch {
	case !known:
	case a.Threshold <= 0 || counter >= a.Threshold:
		p.Percent = 100
	case counter > 0:
		p.Percent = float64(counter) * 100 / float64(a.Threshold)
	}
	return p
}
