package focus

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DecisionValid   = "VALID"
	DecisionInvalid = "INVALID"
)

// Verdict sources, reported to callers and metrics.
const (
	SourceSession = "session"
	SourceCache   = "cache"
	SourceJudge   = "judge"
)

// Verdict is a thresholded relevance judgement for one video under one topic.
type Verdict struct {
	Decision   string  `json:"decision"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Source     string  `json:"source,omitempty"`
}

func (v Verdict) Valid() bool { return v.Decision == DecisionValid }

// DecisionCacheEntry is the durable cross-session verdict for (video, topic).
// Entries never expire.
type DecisionCacheEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VideoID    string    `gorm:"column:video_id;not null;uniqueIndex:idx_focus_decision_video_topic,priority:1" json:"video_id"`
	Topic      string    `gorm:"column:topic;not null;uniqueIndex:idx_focus_decision_video_topic,priority:2" json:"topic"`
	Confidence float64   `gorm:"column:confidence;not null" json:"confidence"`
	Reason     string    `gorm:"column:reason" json:"reason"`
	CheckedAt  time.Time `gorm:"column:checked_at;not null" json:"checked_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (DecisionCacheEntry) TableName() string { return "focus_decision_cache" }

func (e *DecisionCacheEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
