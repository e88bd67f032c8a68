package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/focustube-backend/internal/data/repos"
	"github.com/yungbote/focustube-backend/internal/data/repos/testutil"
	types "github.com/yungbote/focustube-backend/internal/domain"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
)

func TestAchievementPreview(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	svc := NewAchievementService(log, set.Users, set.Achievements, set.UserAchievements)
	ctx := context.Background()

	u := testutil.SeedUser(t, db, 25)
	require.NoError(t, db.Model(&types.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"total_sessions": 4,
		"current_streak": 2,
	}).Error)

	first := testutil.SeedAchievement(t, db, "First Focus", types.ConditionTotalSessions, 1, 10)
	three := testutil.SeedAchievement(t, db, "Hat Trick", types.ConditionTotalSessions, 3, 20)
	weekStreak := testutil.SeedAchievement(t, db, "Week Streak", types.ConditionStreak, 7, 50)
	testutil.SeedAchievement(t, db, "Night Owl", types.ConditionNightOwl, 5, 30)
	testutil.SeedAchievement(t, db, "Mystery", "SOMETHING_NEW", 1, 5)
	ten := testutil.SeedAchievement(t, db, "Ten Sessions", types.ConditionTotalSessions, 10, 40)
	hidden := testutil.SeedAchievement(t, db, "Retired", types.ConditionTotalSessions, 1, 5)
	require.NoError(t, db.Model(hidden).Update("is_active", false).Error)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, a := range []*types.Achievement{first, three} {
		_, err := set.UserAchievements.InsertIfAbsent(dbctx.New(ctx), &types.UserAchievement{
			UserID:        u.ID,
			AchievementID: a.ID,
			UnlockedAt:    base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	p, err := svc.Preview(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.UnlockedCount)
	assert.Equal(t, 6, p.TotalCount)
	require.Len(t, p.Recent, 2)
	assert.Equal(t, "Hat Trick", p.Recent[0].Achievement.Title, "most recent first")

	var inProgress []string
	for _, ip := range p.InProgress {
		inProgress = append(inProgress, ip.Achievement.Title)
	}
	assert.ElementsMatch(t, []string{"Week Streak", "Ten Sessions"}, inProgress)
	for _, ip := range p.InProgress {
		switch ip.Achievement.ID {
		case weekStreak.ID:
			assert.Equal(t, 2, ip.Progress.Current)
			assert.Equal(t, 7, ip.Progress.Threshold)
		case ten.ID:
			assert.InDelta(t, 40.0, ip.Progress.Percent, 1e-9)
		}
	}

	_, err = svc.Preview(ctx, uuid.New())
	assert.Error(t, err)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 6)
}
