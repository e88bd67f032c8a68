package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Condition types; each maps to exactly one user counter.
const (
	ConditionTotalSessions = "TOTAL_SESSIONS"
	ConditionTotalMinutes  = "TOTAL_MINUTES"
	ConditionStreak        = "STREAK"
	ConditionLongestStreak = "LONGEST_STREAK"
	ConditionEarlyBird     = "EARLY_BIRD"
	ConditionNightOwl      = "NIGHT_OWL"
	ConditionWeekend       = "WEEKEND"
	ConditionPerfectDay    = "PERFECT_DAY"
)

type Achievement struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string    `gorm:"column:title;not null;uniqueIndex" json:"title"`
	Description   string    `gorm:"column:description" json:"description"`
	ConditionType string    `gorm:"column:condition_type;not null;index" json:"condition_type"`
	Threshold     int       `gorm:"column:threshold;not null" json:"threshold"`
	RewardPoints  int       `gorm:"column:reward_points;not null" json:"reward_points"`
	Category      string    `gorm:"column:category" json:"category,omitempty"`
	Icon          string    `gorm:"column:icon" json:"icon,omitempty"`
	IsActive      bool      `gorm:"column:is_active;not null;index" json:"is_active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Achievement) TableName() string { return "achievement" }

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// UserAchievement records an unlock. The (user, achievement) unique index is
// the last line of defence against double unlocks.
type UserAchievement struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement_user_achievement,priority:1" json:"user_id"`
	AchievementID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement_user_achievement,priority:2;index" json:"achievement_id"`
	SourceSessionID *uuid.UUID `gorm:"type:uuid;column:source_session_id" json:"source_session_id,omitempty"`
	UnlockedAt      time.Time  `gorm:"column:unlocked_at;not null;index" json:"unlocked_at"`
}

func (UserAchievement) TableName() string { return "user_achievement" }

func (u *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
