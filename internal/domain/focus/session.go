package focus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Session statuses. COMPLETED and INVALID are terminal.
const (
	StatusArmed     = "ARMED"
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusInvalid   = "INVALID"
)

// Invalid reasons recorded on terminal INVALID sessions.
const (
	ReasonTopicMismatch    = "TOPIC_MISMATCH"
	ReasonExcessiveTabAway = "EXCESSIVE_TAB_AWAY"
	ReasonPauseAbuse       = "PAUSE_ABUSE"
	ReasonShortsNotAllowed = "SHORTS_NOT_ALLOWED"
	ReasonManualReset      = "MANUAL_RESET"
)

// ActiveStatuses are the statuses that count against the one-active-session rule.
var ActiveStatuses = []string{StatusArmed, StatusRunning}

// Session is one focus attempt by one owner. Rows are never deleted.
type Session struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`

	// Trimmed and lower-cased at start; immutable afterwards.
	Topic              string `gorm:"column:topic;not null" json:"topic"`
	FocusLengthMinutes int    `gorm:"column:focus_length_minutes;not null" json:"focus_length_minutes"`

	Status        string `gorm:"column:status;not null;index" json:"status"`
	InvalidReason string `gorm:"column:invalid_reason" json:"invalid_reason,omitempty"`

	StartTime         *time.Time `gorm:"column:start_time;index" json:"start_time,omitempty"`
	LastHeartbeatAt   *time.Time `gorm:"column:last_heartbeat_at" json:"last_heartbeat_at,omitempty"`
	TotalFocusSeconds int64      `gorm:"column:total_focus_seconds;not null" json:"total_focus_seconds"`

	ActiveVideoID string `gorm:"column:active_video_id" json:"active_video_id,omitempty"`
	// videoId -> Verdict, the session-local tier of the decision cache.
	Decisions datatypes.JSON `gorm:"column:decisions" json:"decisions,omitempty"`

	TotalHiddenSeconds int64      `gorm:"column:total_hidden_seconds;not null" json:"total_hidden_seconds"`
	HiddenEventCount   int        `gorm:"column:hidden_event_count;not null" json:"hidden_event_count"`
	LastHiddenStart    *time.Time `gorm:"column:last_hidden_start" json:"last_hidden_start,omitempty"`

	TotalPauseSeconds int64      `gorm:"column:total_pause_seconds;not null" json:"total_pause_seconds"`
	PauseEventCount   int        `gorm:"column:pause_event_count;not null" json:"pause_event_count"`
	LastPauseStart    *time.Time `gorm:"column:last_pause_start" json:"last_pause_start,omitempty"`

	RecoveryActive       bool       `gorm:"column:recovery_active;not null" json:"recovery_active"`
	RecoveryWindowEndsAt *time.Time `gorm:"column:recovery_window_ends_at" json:"recovery_window_ends_at,omitempty"`
	RecoveryCount        int        `gorm:"column:recovery_count;not null" json:"recovery_count"`

	Completed   bool       `gorm:"column:completed;not null" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	// Compare-and-set token; bumped on every write.
	Version int `gorm:"column:version;not null" json:"version"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string { return "focus_session" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Session) IsActive() bool {
	return s != nil && (s.Status == StatusArmed || s.Status == StatusRunning)
}

func (s *Session) IsTerminal() bool {
	return s != nil && (s.Status == StatusCompleted || s.Status == StatusInvalid)
}

// DecisionMap decodes the session-local verdicts. A malformed column decodes
// as empty so a bad row cannot wedge the session.
func (s *Session) DecisionMap() map[string]Verdict {
	out := map[string]Verdict{}
	if s == nil || len(s.Decisions) == 0 {
		return out
	}
	if err := json.Unmarshal(s.Decisions, &out); err != nil {
		return map[string]Verdict{}
	}
	return out
}

// LookupDecision returns the session-local verdict for videoID.
func (s *Session) LookupDecision(videoID string) (Verdict, bool) {
	v, ok := s.DecisionMap()[videoID]
	return v, ok
}

// RememberDecision stores v for videoID unless one is already recorded.
func (s *Session) RememberDecision(videoID string, v Verdict) bool {
	m := s.DecisionMap()
	if _, ok := m[videoID]; ok {
		return false
	}
	m[videoID] = v
	raw, err := json.Marshal(m)
	if err != nil {
		return false
	}
	s.Decisions = datatypes.JSON(raw)
	return true
}
