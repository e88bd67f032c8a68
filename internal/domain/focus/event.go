package focus

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lifecycle event types sent by the client.
const (
	EventTabHiddenStart = "TAB_HIDDEN_START"
	EventTabHiddenEnd   = "TAB_HIDDEN_END"
	EventPauseStart     = "PAUSE_START"
	EventPauseEnd       = "PAUSE_END"
	EventShortsDetected = "SHORTS_DETECTED"
	EventVideoDetected  = "VIDEO_DETECTED"
	EventHeartbeat      = "HEARTBEAT"
)

var LifecycleEventTypes = []string{
	EventTabHiddenStart,
	EventTabHiddenEnd,
	EventPauseStart,
	EventPauseEnd,
	EventShortsDetected,
	EventVideoDetected,
	EventHeartbeat,
}

func IsLifecycleEventType(t string) bool {
	for _, known := range LifecycleEventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// LifecycleEvent is an append-only receipt. The unique EventID is the
// idempotency gate for event processing.
type LifecycleEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   string    `gorm:"column:event_id;not null;uniqueIndex" json:"event_id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Type      string    `gorm:"column:type;not null" json:"type"`

	ClientTimestamp *time.Time `gorm:"column:client_timestamp" json:"client_timestamp,omitempty"`
	ServerTimestamp time.Time  `gorm:"column:server_timestamp;not null" json:"server_timestamp"`
}

func (LifecycleEvent) TableName() string { return "focus_session_event" }

func (e *LifecycleEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
