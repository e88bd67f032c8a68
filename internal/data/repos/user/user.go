package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/focustube-backend/internal/domain"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, u *types.User) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	// LockByID reads the row FOR UPDATE inside dbc.Tx. SQLite serializes
	// writers already, so the lock clause is skipped there.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	SaveCounters(dbc dbctx.Context, u *types.User) error
	AddPoints(dbc dbctx.Context, id uuid.UUID, delta int) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{
		db:  db,
		log: baseLog.With("repo", "UserRepo"),
	}
}

func (r *userRepo) Create(dbc dbctx.Context, u *types.User) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(u).Error
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return r.first(t.WithContext(dbc.Ctx), id)
}

func (r *userRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(q, id)
}

func (r *userRepo) first(q *gorm.DB, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.User
	if err := q.Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// SaveCounters persists the gamification counters and activity dates of u.
func (r *userRepo) SaveCounters(dbc dbctx.Context, u *types.User) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if u == nil || u.ID == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"total_sessions":        u.TotalSessions,
			"total_focus_minutes":   u.TotalFocusMinutes,
			"points":                u.Points,
			"current_streak":        u.CurrentStreak,
			"longest_streak":        u.LongestStreak,
			"early_bird_count":      u.EarlyBirdCount,
			"night_owl_count":       u.NightOwlCount,
			"weekend_session_count": u.WeekendSessionCount,
			"perfect_day_count":     u.PerfectDayCount,
			"last_session_date":     u.LastSessionDate,
			"last_active_at":        u.LastActiveAt,
			"updated_at":            time.Now().UTC(),
		}).Error
}

func (r *userRepo) AddPoints(dbc dbctx.Context, id uuid.UUID, delta int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || delta == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", id).
		UpdateColumn("points", gorm.Expr("points + ?", delta)).Error
}
