package gamification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/focustube-backend/internal/domain"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

type UserAchievementRepo interface {
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserAchievement, error)
	UnlockedIDs(dbc dbctx.Context, userID uuid.UUID) (map[uuid.UUID]bool, error)
	// InsertIfAbsent returns false when the (user, achievement) pair was
	// already unlocked.
	InsertIfAbsent(dbc dbctx.Context, row *types.UserAchievement) (bool, error)
}

type userAchievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserAchievementRepo(db *gorm.DB, baseLog *logger.Logger) UserAchievementRepo {
	return &userAchievementRepo{
		db:  db,
		log: baseLog.With("repo", "UserAchievementRepo"),
	}
}

func (r *userAchievementRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserAchievement, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.UserAchievement
	if userID == uuid.Nil {
		return out, nil
	}
	err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Find(&out).Error
	return out, err
}

func (r *userAchievementRepo) UnlockedIDs(dbc dbctx.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := r.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		out[row.AchievementID] = true
	}
	return out, nil
}

func (r *userAchievementRepo) InsertIfAbsent(dbc dbctx.Context, row *types.UserAchievement) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
