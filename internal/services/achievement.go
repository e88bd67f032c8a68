package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/focustube-backend/internal/data/repos"
	types "github.com/yungbote/focustube-backend/internal/domain"
	domainagg "github.com/yungbote/focustube-backend/internal/domain/aggregates"
	focusrules "github.com/yungbote/focustube-backend/internal/modules/focus"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

const recentUnlockLimit = 3

type UnlockedAchievement struct {
	Achievement types.Achievement
	UnlockedAt  time.Time
}

type AchievementProgress struct {
	Achievement types.Achievement
	Progress    focusrules.Progress
}

type AchievementPreview struct {
	UnlockedCount int
	TotalCount    int
	// Most recent first.
	Recent     []UnlockedAchievement
	InProgress []AchievementProgress
}

type AchievementService interface {
	Preview(ctx context.Context, ownerID uuid.UUID) (AchievementPreview, error)
	ListActive(ctx context.Context) ([]*types.Achievement, error)
}

type achievementService struct {
	log              *logger.Logger
	users            repos.UserRepo
	achievements     repos.AchievementRepo
	userAchievements repos.UserAchievementRepo
}

func NewAchievementService(
	baseLog *logger.Logger,
	users repos.UserRepo,
	achievements repos.AchievementRepo,
	userAchievements repos.UserAchievementRepo,
) AchievementService {
	return &achievementService{
		log:              baseLog.With("service", "AchievementService"),
		users:            users,
		achievements:     achievements,
		userAchievements: userAchievements,
	}
}

func (s *achievementService) ListActive(ctx context.Context) ([]*types.Achievement, error) {
	rows, err := s.achievements.ListActive(dbctx.New(ctx))
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, "AchievementService.ListActive", err)
	}
	return rows, nil
}

func (s *achievementService) Preview(ctx context.Context, ownerID uuid.UUID) (AchievementPreview, error) {
	const op = "AchievementService.Preview"
	var out AchievementPreview
	if ownerID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing owner_id", nil)
	}

	var (
		catalog  []*types.Achievement
		unlocked []*types.UserAchievement
		u        *types.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = s.achievements.ListActive(dbctx.New(gctx))
		return err
	})
	g.Go(func() error {
		var err error
		unlocked, err = s.userAchievements.ListByUser(dbctx.New(gctx), ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		u, err = s.users.GetByID(dbctx.New(gctx), ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return out, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if u == nil {
		return out, domainagg.NewError(domainagg.CodeNotFound, op, "user not found", nil)
	}

	byID := make(map[uuid.UUID]*types.Achievement, len(catalog))
	for _, a := range catalog {
		byID[a.ID] = a
	}
	unlockedIDs := make(map[uuid.UUID]bool, len(unlocked))
	for _, ua := range unlocked {
		unlockedIDs[ua.AchievementID] = true
	}

	out.TotalCount = len(catalog)
	out.UnlockedCount = len(unlocked)

	recent := make([]*types.UserAchievement, len(unlocked))
	copy(recent, unlocked)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].UnlockedAt.After(recent[j].UnlockedAt)
	})
	for _, ua := range recent {
		if len(out.Recent) == recentUnlockLimit {
			break
		}
		a, ok := byID[ua.AchievementID]
		if !ok {
			continue
		}
		out.Recent = append(out.Recent, UnlockedAchievement{Achievement: *a, UnlockedAt: ua.UnlockedAt})
	}

	for _, a := range catalog {
		if unlockedIDs[a.ID] {
			continue
		}
		p := focusrules.ProgressOf(u, a)
		if p.Current > 0 && p.Current < a.Threshold {
			out.InProgress = append(out.InProgress, AchievementProgress{Achievement: *a, Progress: p})
		}
	}
	return out, nil
}
