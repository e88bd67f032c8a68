package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/focustube-backend/internal/data/repos"
	types "github.com/yungbote/focustube-backend/internal/domain"
	domainagg "github.com/yungbote/focustube-backend/internal/domain/aggregates"
	focusrules "github.com/yungbote/focustube-backend/internal/modules/focus"
	"github.com/yungbote/focustube-backend/internal/observability"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

// Input bounds accepted from clients.
const (
	TopicMinLen       = 2
	TopicMaxLen       = 150
	VideoIDMinLen     = 5
	VideoIDMaxLen     = 100
	TitleMaxLen       = 300
	DescriptionMaxLen = 1000
	EventIDMinLen     = 10
	EventIDMaxLen     = 100
)

type CurrentSession struct {
	// Nil when the owner has no ARMED or RUNNING session.
	Session            *types.FocusSession
	FocusLengthMinutes int
}

type VideoEventInput struct {
	SessionID   uuid.UUID
	OwnerID     uuid.UUID
	VideoID     string
	Title       string
	Description string
}

type VideoEventResult struct {
	Session types.FocusSession
	// Zero when the session was already INVALID and no verdict was resolved.
	Verdict        types.Verdict
	ShortCircuited bool
}

type HeartbeatAck struct {
	Accepted          bool
	GainedSeconds     int64
	TotalFocusSeconds int64
	Status            string
	InvalidReason     string
}

type LifecycleEventInput struct {
	SessionID uuid.UUID
	OwnerID   uuid.UUID
	EventID   string
	Type      string
	// Optional RFC3339 timestamp as sent by the client.
	ClientTimestamp string
}

type LifecycleEventAck struct {
	Session   types.FocusSession
	Duplicate bool
	Applied   bool
}

type CompletionResult struct {
	Session          types.FocusSession
	User             types.User
	Reward           types.CompletionReward
	Unlocked         []types.Achievement
	AlreadyCompleted bool
}

// FocusSessionService is the request-facing surface of the focus engine.
// Errors are *aggregates.Error values; see domain/aggregates for codes.
type FocusSessionService interface {
	GetCurrentSession(ctx context.Context, ownerID uuid.UUID) (CurrentSession, error)
	StartSession(ctx context.Context, ownerID uuid.UUID, topic string) (types.FocusSession, error)
	SubmitVideoEvent(ctx context.Context, in VideoEventInput) (VideoEventResult, error)
	Heartbeat(ctx context.Context, sessionID, ownerID uuid.UUID) (HeartbeatAck, error)
	SubmitLifecycleEvent(ctx context.Context, in LifecycleEventInput) (LifecycleEventAck, error)
	CompleteSession(ctx context.Context, sessionID, ownerID uuid.UUID) (CompletionResult, error)
	ResetSession(ctx context.Context, sessionID, ownerID uuid.UUID) (types.FocusSession, error)
}

type FocusSessionServiceDeps struct {
	Users      repos.UserRepo
	Sessions   repos.FocusSessionRepo
	Aggregate  domainagg.FocusSessionAggregate
	Completion domainagg.FocusCompletionAggregate
	Decisions  DecisionCache
	Clock      Clock
	// Zone for calendar facts when the owner has none configured.
	DefaultLocation *time.Location
}

type focusSessionService struct {
	log  *logger.Logger
	deps FocusSessionServiceDeps
}

func NewFocusSessionService(baseLog *logger.Logger, deps FocusSessionServiceDeps) FocusSessionService {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.DefaultLocation == nil {
		deps.DefaultLocation = time.UTC
	}
	return &focusSessionService{
		log:  baseLog.With("service", "FocusSessionService"),
		deps: deps,
	}
}

func validationError(op, msg string) error {
	return domainagg.NewError(domainagg.CodeValidation, op, msg, nil)
}

func lengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

func (s *focusSessionService) ref(sessionID, ownerID uuid.UUID) domainagg.SessionRef {
	return domainagg.SessionRef{SessionID: sessionID, OwnerID: ownerID, At: s.deps.Clock.Now()}
}

func (s *focusSessionService) GetCurrentSession(ctx context.Context, ownerID uuid.UUID) (CurrentSession, error) {
	const op = "FocusSessionService.GetCurrentSession"
	out := CurrentSession{FocusLengthMinutes: types.DefaultFocusLengthMinutes}
	if ownerID == uuid.Nil {
		return out, validationError(op, "missing owner_id")
	}
	dbc := dbctx.New(ctx)
	u, err := s.deps.Users.GetByID(dbc, ownerID)
	if err != nil {
		return out, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if u != nil && u.FocusLengthMinutes > 0 {
		out.FocusLengthMinutes = u.FocusLengthMinutes
	}

	active, err := s.deps.Sessions.GetLatestActiveForOwner(dbc, ownerID)
	if err != nil {
		return out, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if active == nil {
		return out, nil
	}
	before := active.Status
	sess, err := s.deps.Aggregate.Refresh(ctx, s.ref(active.ID, ownerID))
	if err != nil {
		return out, err
	}
	s.noteTransition(before, sess)
	out.Session = &sess
	return out, nil
}

func (s *focusSessionService) StartSession(ctx context.Context, ownerID uuid.UUID, topic string) (types.FocusSession, error) {
	const op = "FocusSessionService.StartSession"
	if ownerID == uuid.Nil {
		return types.FocusSession{}, validationError(op, "missing owner_id")
	}
	topic = strings.ToLower(strings.TrimSpace(topic))
	if !lengthBetween(topic, TopicMinLen, TopicMaxLen) {
		return types.FocusSession{}, validationError(op, "topic must be 2-150 characters")
	}

	u, err := s.deps.Users.GetByID(dbctx.New(ctx), ownerID)
	if err != nil {
		return types.FocusSession{}, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if u == nil {
		return types.FocusSession{}, domainagg.NewError(domainagg.CodeNotFound, op, "user not found", nil)
	}
	length := u.FocusLengthMinutes
	if length <= 0 {
		length = types.DefaultFocusLengthMinutes
	}

	res, err := s.deps.Aggregate.Start(ctx, domainagg.StartFocusSessionInput{
		OwnerID:            ownerID,
		Topic:              topic,
		FocusLengthMinutes: length,
		At:                 s.deps.Clock.Now(),
	})
	if err != nil {
		return types.FocusSession{}, err
	}
	observability.Current().IncTransition(res.Session.Status, "")
	s.log.Info("Focus session started", "session_id", res.Session.ID, "owner_id", ownerID, "focus_minutes", length)
	return res.Session, nil
}

func (s *focusSessionService) SubmitVideoEvent(ctx context.Context, in VideoEventInput) (VideoEventResult, error) {
	const op = "FocusSessionService.SubmitVideoEvent"
	var out VideoEventResult
	in.VideoID = strings.TrimSpace(in.VideoID)
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.SessionID == uuid.Nil || in.OwnerID == uuid.Nil:
		return out, validationError(op, "missing session_id or owner_id")
	case !lengthBetween(in.VideoID, VideoIDMinLen, VideoIDMaxLen):
		return out, validationError(op, "videoId must be 5-100 characters")
	case !lengthBetween(in.Title, 1, TitleMaxLen):
		return out, validationError(op, "title must be 1-300 characters")
	case utf8.RuneCountInString(in.Description) > DescriptionMaxLen:
		return out, validationError(op, "description must be at most 1000 characters")
	}

	current, err := s.deps.Sessions.GetByIDForOwner(dbctx.New(ctx), in.SessionID, in.OwnerID)
	if err != nil {
		return out, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if current == nil {
		return out, domainagg.NewError(domainagg.CodeNotFound, op, "session not found", nil)
	}
	before := current.Status

	// Only sessions that are still live after lazy expiry are worth a judge call.
	probe := *current
	focusrules.ExpireRecovery(&probe, s.deps.Clock.Now())
	if probe.IsTerminal() {
		sess, err := s.deps.Aggregate.Refresh(ctx, s.ref(in.SessionID, in.OwnerID))
		if err != nil {
			return out, err
		}
		if sess.Status == types.SessionStatusCompleted {
			return out, domainagg.NewError(domainagg.CodeInvariantViolation, op, "session is already completed", nil)
		}
		s.noteTransition(before, sess)
		out.Session = sess
		out.ShortCircuited = true
		return out, nil
	}

	verdict, err := s.deps.Decisions.Resolve(ctx, current, in.VideoID, in.Title, in.Description)
	if err != nil {
		return out, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	res, err := s.deps.Aggregate.ApplyVerdict(ctx, domainagg.ApplyVerdictInput{
		Ref:     s.ref(in.SessionID, in.OwnerID),
		VideoID: in.VideoID,
		Verdict: verdict,
	})
	if err != nil {
		return out, err
	}
	out.Session = res.Session
	out.ShortCircuited = res.ShortCircuited
	if !res.ShortCircuited {
		out.Verdict = res.Verdict
		observability.Current().IncVerdict(res.Verdict.Source, res.Verdict.Decision)
	}
	s.noteTransition(before, res.Session)
	return out, nil
}

func (s *focusSessionService) Heartbeat(ctx context.Context, sessionID, ownerID uuid.UUID) (HeartbeatAck, error) {
	res, err := s.deps.Aggregate.Heartbeat(ctx, s.ref(sessionID, ownerID))
	if err != nil {
		return HeartbeatAck{}, err
	}
	observability.Current().ObserveHeartbeat(res.Accepted, res.GainedSeconds)
	if res.Session.Status == types.SessionStatusInvalid {
		s.noteTransition(types.SessionStatusRunning, res.Session)
	}
	return HeartbeatAck{
		Accepted:          res.Accepted,
		GainedSeconds:     res.GainedSeconds,
		TotalFocusSeconds: res.Session.TotalFocusSeconds,
		Status:            res.Session.Status,
		InvalidReason:     res.Session.InvalidReason,
	}, nil
}

func (s *focusSessionService) SubmitLifecycleEvent(ctx context.Context, in LifecycleEventInput) (LifecycleEventAck, error) {
	const op = "FocusSessionService.SubmitLifecycleEvent"
	var out LifecycleEventAck
	in.EventID = strings.TrimSpace(in.EventID)
	in.Type = strings.TrimSpace(in.Type)
	if !lengthBetween(in.EventID, EventIDMinLen, EventIDMaxLen) {
		return out, validationError(op, "eventId must be 10-100 characters")
	}
	if !types.IsLifecycleEventType(in.Type) {
		return out, validationError(op, "unknown event type")
	}
	var clientTS *time.Time
	if raw := strings.TrimSpace(in.ClientTimestamp); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return out, validationError(op, "clientTimestamp must be RFC3339")
		}
		clientTS = &ts
	}

	res, err := s.deps.Aggregate.IngestLifecycleEvent(ctx, domainagg.LifecycleEventInput{
		Ref:             s.ref(in.SessionID, in.OwnerID),
		EventID:         in.EventID,
		Type:            in.Type,
		ClientTimestamp: clientTS,
	})
	if err != nil {
		return out, err
	}
	outcome := "ignored"
	switch {
	case res.Duplicate:
		outcome = "duplicate"
	case res.Applied:
		outcome = "applied"
	}
	observability.Current().IncLifecycleEvent(in.Type, outcome)
	if res.Applied && res.Session.Status == types.SessionStatusInvalid {
		observability.Current().IncTransition(res.Session.Status, res.Session.InvalidReason)
	}
	return LifecycleEventAck{Session: res.Session, Duplicate: res.Duplicate, Applied: res.Applied}, nil
}

func (s *focusSessionService) CompleteSession(ctx context.Context, sessionID, ownerID uuid.UUID) (CompletionResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "focus.complete")
	defer span.End()
	span.SetAttributes(attribute.String("focus.session_id", sessionID.String()))

	metrics := observability.Current()
	res, err := s.deps.Completion.Complete(ctx, domainagg.CompleteSessionInput{
		Ref:             s.ref(sessionID, ownerID),
		DefaultLocation: s.deps.DefaultLocation,
	})
	if err != nil {
		metrics.IncCompletion(string(domainagg.CodeOf(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domainagg.CodeOf(err)))
		return CompletionResult{}, err
	}
	if res.AlreadyCompleted {
		metrics.IncCompletion("already_completed")
	} else {
		metrics.IncCompletion("completed")
		metrics.IncTransition(types.SessionStatusCompleted, "")
		for _, a := range res.Unlocked {
			metrics.IncUnlock(a.ConditionType)
		}
		s.log.Info("Focus session completed",
			"session_id", sessionID,
			"owner_id", ownerID,
			"points_earned", res.Reward.PointsEarned+res.Reward.BonusPoints,
			"unlocked", len(res.Unlocked),
		)
	}
	span.SetAttributes(attribute.Int("focus.unlocked", len(res.Unlocked)))
	return CompletionResult{
		Session:          res.Session,
		User:             res.User,
		Reward:           res.Reward,
		Unlocked:         res.Unlocked,
		AlreadyCompleted: res.AlreadyCompleted,
	}, nil
}

func (s *focusSessionService) ResetSession(ctx context.Context, sessionID, ownerID uuid.UUID) (types.FocusSession, error) {
	res, err := s.deps.Aggregate.Reset(ctx, s.ref(sessionID, ownerID))
	if err != nil {
		return types.FocusSession{}, err
	}
	if res.Changed {
		observability.Current().IncTransition(res.Session.Status, res.Session.InvalidReason)
	}
	return res.Session, nil
}

func (s *focusSessionService) noteTransition(before string, after types.FocusSession) {
	if before == after.Status {
		return
	}
	observability.Current().IncTransition(after.Status, after.InvalidReason)
	if after.Status == types.SessionStatusInvalid {
		s.log.Info("Focus session invalidated", "session_id", after.ID, "reason", after.InvalidReason)
	}
}
