package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/focustube-backend/internal/data/repos"
	reposfocus "github.com/yungbote/focustube-backend/internal/data/repos/focus"
	types "github.com/yungbote/focustube-backend/internal/domain"
	domainagg "github.com/yungbote/focustube-backend/internal/domain/aggregates"
	focusrules "github.com/yungbote/focustube-backend/internal/modules/focus"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
)

type FocusSessionAggregateDeps struct {
	Base   BaseDeps
	Policy focusrules.Policy

	Sessions repos.FocusSessionRepo
	Events   repos.LifecycleEventRepo
}

type focusSessionAggregate struct {
	deps FocusSessionAggregateDeps
}

func NewFocusSessionAggregate(deps FocusSessionAggregateDeps) domainagg.FocusSessionAggregate {
	deps.Base = deps.Base.withDefaults()
	return &focusSessionAggregate{deps: deps}
}

func (a *focusSessionAggregate) Contract() domainagg.Contract {
	return domainagg.FocusSessionAggregateContract
}

func (a *focusSessionAggregate) Start(ctx context.Context, in domainagg.StartFocusSessionInput) (domainagg.StartFocusSessionResult, error) {
	const op = "Focus.Session.Start"
	var out domainagg.StartFocusSessionResult
	topic := strings.TrimSpace(in.Topic)
	if in.OwnerID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing owner_id", nil)
	}
	if topic == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing topic", nil)
	}
	if in.FocusLengthMinutes <= 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "focus length must be positive", nil)
	}
	if a.deps.Sessions == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "session repo not configured", nil)
	}
	at := normalizeAt(in.At)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		existing, err := a.deps.Sessions.GetLatestActiveForOwner(dbc, in.OwnerID)
		if err != nil {
			return err
		}
		if existing != nil {
			// A lapsed recovery window frees the slot.
			if !focusrules.ExpireRecovery(existing, at) {
				return ConflictError("an active session already exists")
			}
			if err := a.save(dbc, existing, at); err != nil {
				return err
			}
		}
		s := &types.FocusSession{
			OwnerID:            in.OwnerID,
			Topic:              topic,
			FocusLengthMinutes: in.FocusLengthMinutes,
			Status:             types.SessionStatusArmed,
			CreatedAt:          at,
			UpdatedAt:          at,
		}
		if err := a.deps.Sessions.Create(dbc, s); err != nil {
			return err
		}
		out.Session = *s
		return nil
	})
	return out, err
}

func (a *focusSessionAggregate) Refresh(ctx context.Context, ref domainagg.SessionRef) (types.FocusSession, error) {
	const op = "Focus.Session.Refresh"
	return a.mutate(ctx, op, ref, func(_ dbctx.Context, s *types.FocusSession, at time.Time) (bool, error) {
		return focusrules.ExpireRecovery(s, at), nil
	})
}

func (a *focusSessionAggregate) ApplyVerdict(ctx context.Context, in domainagg.ApplyVerdictInput) (domainagg.ApplyVerdictResult, error) {
	const op = "Focus.Session.ApplyVerdict"
	var out domainagg.ApplyVerdictResult
	videoID := strings.TrimSpace(in.VideoID)
	if videoID == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing video_id", nil)
	}
	if in.Verdict.Decision != types.DecisionValid && in.Verdict.Decision != types.DecisionInvalid {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "verdict decision must be VALID or INVALID", nil)
	}

	s, err := a.mutate(ctx, op, in.Ref, func(_ dbctx.Context, s *types.FocusSession, at time.Time) (bool, error) {
		out.Verdict = in.Verdict
		out.ShortCircuited = false

		expired := focusrules.ExpireRecovery(s, at)
		switch s.Status {
		case types.SessionStatusCompleted:
			return false, InvariantError("session is already completed")
		case types.SessionStatusInvalid:
			out.ShortCircuited = true
			return expired, nil
		}

		if stored, ok := s.LookupDecision(videoID); ok {
			stored.Source = types.VerdictSourceSession
			out.Verdict = stored
		} else {
			remembered := in.Verdict
			remembered.Source = ""
			s.RememberDecision(videoID, remembered)
		}
		a.deps.Policy.ApplyVerdict(s, videoID, out.Verdict, at)
		return true, nil
	})
	out.Session = s
	return out, err
}

func (a *focusSessionAggregate) Heartbeat(ctx context.Context, ref domainagg.SessionRef) (domainagg.HeartbeatResult, error) {
	const op = "Focus.Session.Heartbeat"
	var out domainagg.HeartbeatResult
	s, err := a.mutate(ctx, op, ref, func(_ dbctx.Context, s *types.FocusSession, at time.Time) (bool, error) {
		out.Accepted, out.GainedSeconds = false, 0
		if s.IsTerminal() {
			return false, InvariantError("session is " + strings.ToLower(s.Status))
		}
		if focusrules.ExpireRecovery(s, at) {
			return true, nil
		}
		if err := RequireStatusAllowed(s.Status, types.SessionStatusRunning); err != nil {
			return false, err
		}
		res := a.deps.Policy.Heartbeat(s, at)
		out.Accepted = res.Accepted
		out.GainedSeconds = res.GainedSeconds
		return res.Changed, nil
	})
	out.Session = s
	return out, err
}

func (a *focusSessionAggregate) IngestLifecycleEvent(ctx context.Context, in domainagg.LifecycleEventInput) (domainagg.LifecycleEventResult, error) {
	const op = "Focus.Session.IngestLifecycleEvent"
	var out domainagg.LifecycleEventResult
	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing event_id", nil)
	}
	if !types.IsLifecycleEventType(in.Type) {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "unknown event type", nil)
	}
	if a.deps.Events == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "lifecycle event repo not configured", nil)
	}

	s, err := a.mutate(ctx, op, in.Ref, func(dbc dbctx.Context, s *types.FocusSession, at time.Time) (bool, error) {
		out.Duplicate, out.Applied = false, false
		switch s.Status {
		case types.SessionStatusCompleted:
			return false, InvariantError("session is already completed")
		case types.SessionStatusInvalid:
			return false, nil
		}

		var clientTS *time.Time
		if in.ClientTimestamp != nil {
			v := in.ClientTimestamp.UTC()
			clientTS = &v
		}
		inserted, err := a.deps.Events.InsertIfAbsent(dbc, &types.LifecycleEvent{
			EventID:         eventID,
			SessionID:       s.ID,
			OwnerID:         s.OwnerID,
			Type:            in.Type,
			ClientTimestamp: clientTS,
			ServerTimestamp: at,
		})
		if err != nil {
			return false, err
		}
		if !inserted {
			out.Duplicate = true
			return false, nil
		}
		if focusrules.ExpireRecovery(s, at) {
			return true, nil
		}
		out.Applied = a.deps.Policy.ApplyLifecycleEvent(s, in.Type, at)
		return out.Applied, nil
	})
	out.Session = s
	return out, err
}

func (a *focusSessionAggregate) Reset(ctx context.Context, ref domainagg.SessionRef) (domainagg.ResetResult, error) {
	const op = "Focus.Session.Reset"
	var out domainagg.ResetResult
	s, err := a.mutate(ctx, op, ref, func(_ dbctx.Context, s *types.FocusSession, at time.Time) (bool, error) {
		out.Changed = false
		expired := focusrules.ExpireRecovery(s, at)
		switch s.Status {
		case types.SessionStatusCompleted:
			return false, InvariantError("a completed session cannot be reset")
		case types.SessionStatusInvalid:
			return expired, nil
		}
		focusrules.Reset(s)
		out.Changed = true
		return true, nil
	})
	out.Session = s
	return out, err
}

// mutate loads the owner's session, lets decide change it and persists the
// result under compare-and-set. The cycle reruns from a fresh read on version
// conflicts, so decide must reset any state it captures.
func (a *focusSessionAggregate) mutate(
	ctx context.Context,
	op string,
	ref domainagg.SessionRef,
	decide func(dbc dbctx.Context, s *types.FocusSession, at time.Time) (bool, error),
) (types.FocusSession, error) {
	var out types.FocusSession
	if ref.SessionID == uuid.Nil || ref.OwnerID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing session_id or owner_id", nil)
	}
	if a.deps.Sessions == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "session repo not configured", nil)
	}
	at := normalizeAt(ref.At)

	err := executeWriteWithRetry(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		s, err := a.deps.Sessions.GetByIDForOwner(dbc, ref.SessionID, ref.OwnerID)
		if err != nil {
			return err
		}
		if s == nil {
			return NotFoundError("session not found")
		}
		write, err := decide(dbc, s, at)
		if err != nil {
			return err
		}
		if write {
			if err := a.save(dbc, s, at); err != nil {
				return err
			}
		}
		out = *s
		return nil
	})
	return out, err
}

func (a *focusSessionAggregate) save(dbc dbctx.Context, s *types.FocusSession, at time.Time) error {
	return saveSession(dbc, a.deps.Base.CASGuard, s, at)
}

// saveSession writes s back if nobody else bumped its version since it was read.
func saveSession(dbc dbctx.Context, guard CASGuard, s *types.FocusSession, at time.Time) error {
	s.UpdatedAt = at
	ok, err := guard.UpdateByVersion(dbc, reposfocus.SessionTable, s.ID, s.Version, reposfocus.UpdateFields(s))
	if err != nil {
		return err
	}
	if err := RequireCASSuccess(ok, "focus session was modified concurrently"); err != nil {
		return err
	}
	s.Version++
	return nil
}
