package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/focustube-backend/internal/data/db"
	types "github.com/yungbote/focustube-backend/internal/domain"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

// Logger returns a silent logger unless TEST_LOG is set.
func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	if os.Getenv("TEST_LOG") == "" {
		return logger.Nop()
	}
	l, err := logger.New("development")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}
	return l
}

// DB opens a fresh migrated in-memory SQLite database for one test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	svc, err := db.Open(db.Config{Driver: db.DriverSQLite, SQLitePath: ":memory:"}, Logger(tb))
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	tb.Cleanup(func() { _ = svc.Close() })
	if err := db.AutoMigrateAll(svc.DB()); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return svc.DB()
}

// Tx begins a transaction that is rolled back when the test ends.
func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func DBC(tx *gorm.DB) dbctx.Context {
	return dbctx.Context{Ctx: context.Background(), Tx: tx}
}

// SeedUser inserts an owner with the given focus length.
func SeedUser(tb testing.TB, gdb *gorm.DB, focusMinutes int) *types.User {
	tb.Helper()
	u := &types.User{FocusLengthMinutes: focusMinutes}
	if err := gdb.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedSession inserts a session row as given, filling topic and length.
func SeedSession(tb testing.TB, gdb *gorm.DB, s *types.FocusSession) *types.FocusSession {
	tb.Helper()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.FocusLengthMinutes == 0 {
		s.FocusLengthMinutes = 25
	}
	if s.Topic == "" {
		s.Topic = "calculus"
	}
	if err := gdb.Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

// SeedAchievement inserts an active achievement.
func SeedAchievement(tb testing.TB, gdb *gorm.DB, title, condition string, threshold, reward int) *types.Achievement {
	tb.Helper()
	a := &types.Achievement{
		Title:         title,
		ConditionType: condition,
		Threshold:     threshold,
		RewardPoints:  reward,
		IsActive:      true,
	}
	if err := gdb.Create(a).Error; err != nil {
		tb.Fatalf("seed achievement: %v", err)
	}
	return a
}

// Clock is a settable time source for tests.
type Clock struct{ T time.Time }

func (c *Clock) Now() time.Time          { return c.T }
func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }
