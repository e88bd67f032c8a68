package user

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/focustube-backend/internal/data/repos/testutil"
	types "github.com/yungbote/focustube-backend/internal/domain"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)

	repo := NewUserRepo(db, testutil.Logger(t))

	u := &types.User{}
	if err := repo.Create(dbc, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.FocusLengthMinutes != types.DefaultFocusLengthMinutes {
		t.Fatalf("Create: expected default focus length, got %d", u.FocusLengthMinutes)
	}

	got, err := repo.GetByID(dbc, u.ID)
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID(missing): got=%+v err=%v", missing, err)
	}

	locked, err := repo.LockByID(dbc, u.ID)
	if err != nil || locked == nil {
		t.Fatalf("LockByID: got=%+v err=%v", locked, err)
	}

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	locked.TotalSessions = 3
	locked.TotalFocusMinutes = 75
	locked.Points = 75
	locked.CurrentStreak = 2
	locked.LongestStreak = 4
	locked.LastSessionDate = &day
	if err := repo.SaveCounters(dbc, locked); err != nil {
		t.Fatalf("SaveCounters: %v", err)
	}
	if err := repo.AddPoints(dbc, u.ID, 50); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}

	got, err = repo.GetByID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TotalSessions != 3 || got.TotalFocusMinutes != 75 || got.LongestStreak != 4 {
		t.Fatalf("SaveCounters: unexpected counters: %+v", got)
	}
	if got.Points != 125 {
		t.Fatalf("AddPoints: expected 125 points, got %d", got.Points)
	}
	if got.LastSessionDate == nil || !got.LastSessionDate.Equal(day) {
		t.Fatalf("SaveCounters: last session date = %v", got.LastSessionDate)
	}
}
