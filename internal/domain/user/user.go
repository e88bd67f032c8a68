package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultFocusLengthMinutes = 25

// User holds the preferences and gamification counters the focus engine
// reads and mutates. Accounts themselves are provisioned elsewhere.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	FocusLengthMinutes int `gorm:"column:focus_length_minutes;not null" json:"focus_length_minutes"`
	// IANA zone name; empty falls back to the service default.
	Timezone string `gorm:"column:timezone" json:"timezone,omitempty"`

	TotalSessions       int `gorm:"column:total_sessions;not null" json:"total_sessions"`
	TotalFocusMinutes   int `gorm:"column:total_focus_minutes;not null" json:"total_focus_minutes"`
	Points              int `gorm:"column:points;not null" json:"points"`
	CurrentStreak       int `gorm:"column:current_streak;not null" json:"current_streak"`
	LongestStreak       int `gorm:"column:longest_streak;not null" json:"longest_streak"`
	EarlyBirdCount      int `gorm:"column:early_bird_count;not null" json:"early_bird_count"`
	NightOwlCount       int `gorm:"column:night_owl_count;not null" json:"night_owl_count"`
	WeekendSessionCount int `gorm:"column:weekend_session_count;not null" json:"weekend_session_count"`
	PerfectDayCount     int `gorm:"column:perfect_day_count;not null" json:"perfect_day_count"`

	// Civil date (midnight UTC) of the most recent completed session.
	LastSessionDate *time.Time `gorm:"column:last_session_date" json:"last_session_date,omitempty"`
	LastActiveAt    *time.Time `gorm:"column:last_active_at" json:"last_active_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.FocusLengthMinutes <= 0 {
		u.FocusLengthMinutes = DefaultFocusLengthMinutes
	}
	return nil
}
