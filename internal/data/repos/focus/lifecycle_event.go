package focus

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/focustube-backend/internal/domain"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

type LifecycleEventRepo interface {
	// InsertIfAbsent is the idempotency gate: false means the event id was
	// already recorded and must not be applied again.
	InsertIfAbsent(dbc dbctx.Context, ev *types.LifecycleEvent) (bool, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.LifecycleEvent, error)
}

type lifecycleEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLifecycleEventRepo(db *gorm.DB, baseLog *logger.Logger) LifecycleEventRepo {
	return &lifecycleEventRepo{
		db:  db,
		log: baseLog.With("repo", "LifecycleEventRepo"),
	}
}

func (r *lifecycleEventRepo) InsertIfAbsent(dbc dbctx.Context, ev *types.LifecycleEvent) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(ev)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *lifecycleEventRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.LifecycleEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LifecycleEvent
	if sessionID == uuid.Nil {
		return out, nil
	}
	err := t.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("server_timestamp ASC").
		Find(&out).Error
	return out, err
}
