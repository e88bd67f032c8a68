package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/focustube-backend/internal/data/repos/focus"
	"github.com/yungbote/focustube-backend/internal/data/repos/gamification"
	"github.com/yungbote/focustube-backend/internal/data/repos/user"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type FocusSessionRepo = focus.SessionRepo
type DecisionCacheRepo = focus.DecisionCacheRepo
type LifecycleEventRepo = focus.LifecycleEventRepo

type AchievementRepo = gamification.AchievementRepo
type UserAchievementRepo = gamification.UserAchievementRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewFocusSessionRepo(db *gorm.DB, baseLog *logger.Logger) FocusSessionRepo {
	return focus.NewSessionRepo(db, baseLog)
}
func NewDecisionCacheRepo(db *gorm.DB, baseLog *logger.Logger) DecisionCacheRepo {
	return focus.NewDecisionCacheRepo(db, baseLog)
}
func NewLifecycleEventRepo(db *gorm.DB, baseLog *logger.Logger) LifecycleEventRepo {
	return focus.NewLifecycleEventRepo(db, baseLog)
}

func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	return gamification.NewAchievementRepo(db, baseLog)
}
func NewUserAchievementRepo(db *gorm.DB, baseLog *logger.Logger) UserAchievementRepo {
	return gamification.NewUserAchievementRepo(db, baseLog)
}

// Set bundles every repo the focus engine needs.
type Set struct {
	Users            UserRepo
	Sessions         FocusSessionRepo
	DecisionCache    DecisionCacheRepo
	LifecycleEvents  LifecycleEventRepo
	Achievements     AchievementRepo
	UserAchievements UserAchievementRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Users:            NewUserRepo(db, baseLog),
		Sessions:         NewFocusSessionRepo(db, baseLog),
		DecisionCache:    NewDecisionCacheRepo(db, baseLog),
		LifecycleEvents:  NewLifecycleEventRepo(db, baseLog),
		Achievements:     NewAchievementRepo(db, baseLog),
		UserAchievements: NewUserAchievementRepo(db, baseLog),
	}
}
