package focus

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/focustube-backend/internal/domain"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

// SessionTable is the table CAS writes target.
const SessionTable = "focus_session"

type SessionRepo interface {
	Create(dbc dbctx.Context, s *types.FocusSession) error
	GetByIDForOwner(dbc dbctx.Context, id, ownerID uuid.UUID) (*types.FocusSession, error)
	GetLatestActiveForOwner(dbc dbctx.Context, ownerID uuid.UUID) (*types.FocusSession, error)
	CountCompletedStartedBetween(dbc dbctx.Context, ownerID uuid.UUID, from, to time.Time) (int64, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{
		db:  db,
		log: baseLog.With("repo", "FocusSessionRepo"),
	}
}

func (r *sessionRepo) Create(dbc dbctx.Context, s *types.FocusSession) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(s).Error
}

func (r *sessionRepo) GetByIDForOwner(dbc dbctx.Context, id, ownerID uuid.UUID) (*types.FocusSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || ownerID == uuid.Nil {
		return nil, nil
	}
	var row types.FocusSession
	if err := t.WithContext(dbc.Ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sessionRepo) GetLatestActiveForOwner(dbc dbctx.Context, ownerID uuid.UUID) (*types.FocusSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if ownerID == uuid.Nil {
		return nil, nil
	}
	var row types.FocusSession
	if err := t.WithContext(dbc.Ctx).
		Where("owner_id = ? AND status IN ?", ownerID, types.ActiveSessionStatuses).
		Order("created_at DESC").
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// CountCompletedStartedBetween counts the owner's completed sessions whose
// start time falls in [from, to).
func (r *sessionRepo) CountCompletedStartedBetween(dbc dbctx.Context, ownerID uuid.UUID, from, to time.Time) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.FocusSession{}).
		Where("owner_id = ? AND status = ? AND start_time >= ? AND start_time < ?",
			ownerID, types.SessionStatusCompleted, from.UTC(), to.UTC()).
		Count(&n).Error
	return n, err
}

// UpdateFields returns the column map a CAS write persists for s.
func UpdateFields(s *types.FocusSession) map[string]any {
	return map[string]any{
		"status":                  s.Status,
		"invalid_reason":          s.InvalidReason,
		"start_time":              s.StartTime,
		"last_heartbeat_at":       s.LastHeartbeatAt,
		"total_focus_seconds":     s.TotalFocusSeconds,
		"active_video_id":         s.ActiveVideoID,
		"decisions":               s.Decisions,
		"total_hidden_seconds":    s.TotalHiddenSeconds,
		"hidden_event_count":      s.HiddenEventCount,
		"last_hidden_start":       s.LastHiddenStart,
		"total_pause_seconds":     s.TotalPauseSeconds,
		"pause_event_count":       s.PauseEventCount,
		"last_pause_start":        s.LastPauseStart,
		"recovery_active":         s.RecoveryActive,
		"recovery_window_ends_at": s.RecoveryWindowEndsAt,
		"recovery_count":          s.RecoveryCount,
		"completed":               s.Completed,
		"completed_at":            s.CompletedAt,
		"updated_at":              s.UpdatedAt,
	}
}
