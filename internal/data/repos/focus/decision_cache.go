package focus

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/focustube-backend/internal/domain"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

type DecisionCacheRepo interface {
	Get(dbc dbctx.Context, videoID, topic string) (*types.DecisionCacheEntry, error)
	// InsertIfAbsent keeps the first writer's verdict; inserted is false when
	// an entry already existed.
	InsertIfAbsent(dbc dbctx.Context, e *types.DecisionCacheEntry) (inserted bool, err error)
}

type decisionCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDecisionCacheRepo(db *gorm.DB, baseLog *logger.Logger) DecisionCacheRepo {
	return &decisionCacheRepo{
		db:  db,
		log: baseLog.With("repo", "DecisionCacheRepo"),
	}
}

func (r *decisionCacheRepo) Get(dbc dbctx.Context, videoID, topic string) (*types.DecisionCacheEntry, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if videoID == "" || topic == "" {
		return nil, nil
	}
	var row types.DecisionCacheEntry
	if err := t.WithContext(dbc.Ctx).
		Where("video_id = ? AND topic = ?", videoID, topic).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *decisionCacheRepo) InsertIfAbsent(dbc dbctx.Context, e *types.DecisionCacheEntry) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
