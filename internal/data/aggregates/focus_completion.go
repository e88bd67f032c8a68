package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/focustube-backend/internal/data/repos"
	types "github.com/yungbote/focustube-backend/internal/domain"
	domainagg "github.com/yungbote/focustube-backend/internal/domain/aggregates"
	focusrules "github.com/yungbote/focustube-backend/internal/modules/focus"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
)

type FocusCompletionAggregateDeps struct {
	Base   BaseDeps
	Policy focusrules.Policy

	Sessions         repos.FocusSessionRepo
	Users            repos.UserRepo
	Achievements     repos.AchievementRepo
	UserAchievements repos.UserAchievementRepo
}

type focusCompletionAggregate struct {
	deps FocusCompletionAggregateDeps
}

func NewFocusCompletionAggregate(deps FocusCompletionAggregateDeps) domainagg.FocusCompletionAggregate {
	deps.Base = deps.Base.withDefaults()
	return &focusCompletionAggregate{deps: deps}
}

func (a *focusCompletionAggregate) Contract() domainagg.Contract {
	return domainagg.FocusCompletionAggregateContract
}

func (a *focusCompletionAggregate) Complete(ctx context.Context, in domainagg.CompleteSessionInput) (domainagg.CompleteSessionResult, error) {
	const op = "Focus.Completion.Complete"
	var out domainagg.CompleteSessionResult
	if in.Ref.SessionID == uuid.Nil || in.Ref.OwnerID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing session_id or owner_id", nil)
	}
	if a.deps.Sessions == nil || a.deps.Users == nil || a.deps.Achievements == nil || a.deps.UserAchievements == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "completion aggregate repos not configured", nil)
	}
	at := normalizeAt(in.Ref.At)

	var expired bool
	err := executeWriteWithRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.CompleteSessionResult{}
		expired = false

		s, err := a.deps.Sessions.GetByIDForOwner(dbc, in.Ref.SessionID, in.Ref.OwnerID)
		if err != nil {
			return err
		}
		if s == nil {
			return NotFoundError("session not found")
		}
		if s.Status == types.SessionStatusCompleted {
			out.Session = *s
			out.AlreadyCompleted = true
			return nil
		}
		if focusrules.ExpireRecovery(s, at) {
			// Commit the expiry; the caller still gets a state error.
			expired = true
			if err := saveSession(dbc, a.deps.Base.CASGuard, s, at); err != nil {
				return err
			}
			out.Session = *s
			return nil
		}
		if s.Status != types.SessionStatusRunning {
			return InvariantError(fmt.Sprintf("session is %s; only running sessions can complete", strings.ToLower(s.Status)))
		}
		required := int64(s.FocusLengthMinutes) * 60
		if s.TotalFocusSeconds < required {
			return PreconditionError(fmt.Sprintf("insufficient focus time: %ds of %ds", s.TotalFocusSeconds, required))
		}

		completedAt := at
		s.Status = types.SessionStatusCompleted
		s.Completed = true
		s.CompletedAt = &completedAt
		if err := saveSession(dbc, a.deps.Base.CASGuard, s, at); err != nil {
			return err
		}

		u, err := a.deps.Users.LockByID(dbc, s.OwnerID)
		if err != nil {
			return err
		}
		if u == nil {
			return NotFoundError("owner not found")
		}

		started := at
		if s.StartTime != nil {
			started = *s.StartTime
		}
		day := focusrules.DayOf(started, ownerLocation(u.Timezone, in.DefaultLocation))
		sameDay, err := a.deps.Sessions.CountCompletedStartedBetween(dbc, s.OwnerID, day.Start, day.End)
		if err != nil {
			return err
		}

		reward := a.deps.Policy.ApplyCompletion(u, s, day, int(sameDay))
		activeAt := at
		u.LastActiveAt = &activeAt
		if err := a.deps.Users.SaveCounters(dbc, u); err != nil {
			return err
		}

		unlocked, bonus, err := a.unlock(dbc, u, s.ID, at)
		if err != nil {
			return err
		}
		u.Points += bonus
		reward.BonusPoints = bonus

		out.Session = *s
		out.User = *u
		out.Reward = reward
		out.Unlocked = unlocked
		return nil
	})
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeInternal) {
			return domainagg.CompleteSessionResult{}, domainagg.NewError(domainagg.CodeRetryable, op, "completion was rolled back", err)
		}
		return domainagg.CompleteSessionResult{}, err
	}
	if expired {
		return out, domainagg.NewError(domainagg.CodeInvariantViolation, op, "recovery window expired; session is invalid", nil)
	}
	return out, nil
}

// unlock evaluates every active achievement the owner does not hold yet.
// Reward points are credited only for unlock rows this call inserted.
func (a *focusCompletionAggregate) unlock(dbc dbctx.Context, u *types.User, sessionID uuid.UUID, at time.Time) ([]types.Achievement, int, error) {
	catalog, err := a.deps.Achievements.ListActive(dbc)
	if err != nil {
		return nil, 0, err
	}
	held, err := a.deps.UserAchievements.UnlockedIDs(dbc, u.ID)
	if err != nil {
		return nil, 0, err
	}

	unlocked := make([]types.Achievement, 0)
	bonus := 0
	for _, ach := range catalog {
		if ach == nil || held[ach.ID] || !focusrules.Qualifies(u, ach) {
			continue
		}
		src := sessionID
		inserted, err := a.deps.UserAchievements.InsertIfAbsent(dbc, &types.UserAchievement{
			UserID:          u.ID,
			AchievementID:   ach.ID,
			SourceSessionID: &src,
			UnlockedAt:      at,
		})
		if err != nil {
			return nil, 0, err
		}
		if !inserted {
			continue
		}
		if ach.RewardPoints > 0 {
			if err := a.deps.Users.AddPoints(dbc, u.ID, ach.RewardPoints); err != nil {
				return nil, 0, err
			}
			bonus += ach.RewardPoints
		}
		unlocked = append(unlocked, *ach)
	}
	return unlocked, bonus, nil
}

func ownerLocation(name string, fallback *time.Location) *time.Location {
	if name = strings.TrimSpace(name); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if fallback != nil {
		return fallback
	}
	return time.UTC
}
