package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/focustube-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return ensureFocusIndexes(db)
}

// ensureFocusIndexes creates indexes gorm tags cannot express. The partial
// unique index backs the one-active-session-per-owner rule; the statement is
// valid for both Postgres and SQLite.
func ensureFocusIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_focus_session_owner_active ON focus_session (owner_id) WHERE status IN ('ARMED','RUNNING');`,
		`CREATE INDEX IF NOT EXISTS idx_focus_session_owner_status_start ON focus_session (owner_id, status, start_time);`,
		`CREATE INDEX IF NOT EXISTS idx_focus_session_event_session ON focus_session_event (session_id, server_timestamp);`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure focus indexes: %w", err)
		}
	}
	return nil
}
