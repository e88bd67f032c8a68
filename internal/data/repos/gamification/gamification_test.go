package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/focustube-backend/internal/data/repos/testutil"
	types "github.com/yungbote/focustube-backend/internal/domain"
)

func TestAchievementRepo_ListActive(t *testing.T) {
	db := testutil.DB(t)
	dbc := testutil.DBC(testutil.Tx(t, db))
	repo := NewAchievementRepo(db, testutil.Logger(t))

	_, err := repo.Create(dbc, []*types.Achievement{
		{Title: "Ten Sessions", ConditionType: types.ConditionTotalSessions, Threshold: 10, RewardPoints: 100, IsActive: true},
		{Title: "First Session", ConditionType: types.ConditionTotalSessions, Threshold: 1, RewardPoints: 10, IsActive: true},
		{Title: "Retired", ConditionType: types.ConditionStreak, Threshold: 3, RewardPoints: 30},
	})
	require.NoError(t, err)

	active, err := repo.ListActive(dbc)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "First Session", active[0].Title)
	assert.Equal(t, "Ten Sessions", active[1].Title)
}

func TestUserAchievementRepo_InsertIfAbsent(t *testing.T) {
	db := testutil.DB(t)
	dbc := testutil.DBC(testutil.Tx(t, db))
	repo := NewUserAchievementRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, dbc.Tx, 25)
	a := testutil.SeedAchievement(t, dbc.Tx, "First Session", types.ConditionTotalSessions, 1, 10)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	inserted, err := repo.InsertIfAbsent(dbc, &types.UserAchievement{UserID: u.ID, AchievementID: a.ID, UnlockedAt: now})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertIfAbsent(dbc, &types.UserAchievement{UserID: u.ID, AchievementID: a.ID, UnlockedAt: now.Add(time.Minute)})
	require.NoError(t, err)
	assert.False(t, inserted, "second unlock of the same achievement must be a no-op")

	ids, err := repo.UnlockedIDs(dbc, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, len(ids))
	assert.True(t, ids[a.ID])
}
