package focus

import (
	"math"
	"time"

	types "github.com/yungbote/focustube-backend/internal/domain"
)

// SessionDay is the civil day a session belongs to, in the owner's zone.
type SessionDay struct {
	// Date is the civil date at midnight UTC, as stored in lastSessionDate.
	Date time.Time
	// Start and End bound the day as absolute instants, [Start, End).
	Start time.Time
	End   time.Time
	Local time.Time
}

func DayOf(start time.Time, loc *time.Location) SessionDay {
	if loc == nil {
		loc = time.UTC
	}
	local := start.In(loc)
	y, m, d := local.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return SessionDay{
		Date:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Start: dayStart.UTC(),
		End:   dayStart.AddDate(0, 0, 1).UTC(),
		Local: local,
	}
}

// DaysBetween returns the whole-day difference b - a of two civil dates.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(math.Round(ub.Sub(ua).Hours() / 24))
}

// ApplyCompletion credits a completed session to u. sameDayCompleted is the
// number of completed sessions on the session's day including this one; the
// day counts as perfect once, when that number first reaches the threshold.
func (p Policy) ApplyCompletion(u *types.User, s *types.FocusSession, day SessionDay, sameDayCompleted int) types.CompletionReward {
	r := types.CompletionReward{
		Minutes:      s.FocusLengthMinutes,
		PointsEarned: s.FocusLengthMinutes * p.PointsPerMinute,
	}
	u.TotalSessions++
	u.TotalFocusMinutes += r.Minutes
	u.Points += r.PointsEarned

	hour := day.Local.Hour()
	if hour < p.EarlyBirdHour {
		u.EarlyBirdCount++
		r.EarlyBird = true
	}
	if hour >= p.NightOwlHour {
		u.NightOwlCount++
		r.NightOwl = true
	}
	if wd := day.Local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		u.WeekendSessionCount++
		r.Weekend = true
	}
	if sameDayCompleted == p.PerfectDaySessions {
		u.PerfectDayCount++
		r.PerfectDay = true
	}

	switch {
	case u.LastSessionDate == nil:
		u.CurrentStreak = 1
	default:
		switch diff := DaysBetween(*u.LastSessionDate, day.Date); {
		case diff == 1:
			u.CurrentStreak++
		case diff > 1:
			u.CurrentStreak = 1
		case u.CurrentStreak == 0:
			u.CurrentStreak = 1
		}
	}
	if u.CurrentStreak > u.LongestStreak {
		u.LongestStreak = u.CurrentStreak
	}
	// A session older than the recorded date must not move it backwards.
	if u.LastSessionDate == nil || DaysBetween(*u.LastSessionDate, day.Date) > 0 {
		d := day.Date
		u.LastSessionDate = &d
	}
	r.CurrentStreak = u.CurrentStreak
	return r
}
