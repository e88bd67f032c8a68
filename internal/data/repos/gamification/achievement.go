package gamification

import (
	"gorm.io/gorm"

	types "github.com/yungbote/focustube-backend/internal/domain"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

type AchievementRepo interface {
	Create(dbc dbctx.Context, rows []*types.Achievement) ([]*types.Achievement, error)
	ListActive(dbc dbctx.Context) ([]*types.Achievement, error)
}

type achievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return &achievementRepo{
		db:  db,
		log: baseLog.With("repo", "AchievementRepo"),
	}
}

func (r *achievementRepo) Create(dbc dbctx.Context, rows []*types.Achievement) ([]*types.Achievement, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Achievement{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActive returns active achievements in a stable order: condition, then
// threshold, then title.
func (r *achievementRepo) ListActive(dbc dbctx.Context) ([]*types.Achievement, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Achievement
	err := t.WithContext(dbc.Ctx).
		Where("is_active = ?", true).
		Order("condition_type ASC, threshold ASC, title ASC").
		Find(&out).Error
	return out, err
}
