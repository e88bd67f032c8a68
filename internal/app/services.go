package app

import (
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/focustube-backend/internal/data/aggregates"
	"github.com/yungbote/focustube-backend/internal/data/repos"
	"github.com/yungbote/focustube-backend/internal/observability"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
	"github.com/yungbote/focustube-backend/internal/platform/openai"
	"github.com/yungbote/focustube-backend/internal/services"
)

type Services struct {
	Judge        services.RelevanceJudge
	Decisions    services.DecisionCache
	Sessions     services.FocusSessionService
	Achievements services.AchievementService
}

func wireScorer(log *logger.Logger, cfg Config) (services.Scorer, error) {
	switch cfg.JudgeProvider {
	case JudgeProviderOpenAI:
		client, err := openai.NewClient(log, cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		log.Info("Relevance judge: openai", "model", client.Model())
		return services.NewOpenAIScorer(client), nil
	default:
		log.Info("Relevance judge: lexical")
		return services.NewLexicalScorer(), nil
	}
}

// NewJudge builds the relevance judge for cfg.JudgeProvider.
func NewJudge(log *logger.Logger, cfg Config) (services.RelevanceJudge, error) {
	scorer, err := wireScorer(log, cfg)
	if err != nil {
		return nil, err
	}
	return services.NewRelevanceJudge(log, scorer, cfg.Judge), nil
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	reposet repos.Set,
	rdb *goredis.Client,
	metrics *observability.Metrics,
) (Services, error) {
	log.Info("Wiring services...")

	base := aggregates.BaseDeps{
		DB:          db,
		Log:         log.With("component", "aggregates"),
		Hooks:       aggregates.NewObservabilityHooks(metrics),
		CASGuard:    aggregates.NewCASGuard(db),
		MaxAttempts: cfg.CASMaxAttempts,
	}
	sessionAgg := aggregates.NewFocusSessionAggregate(aggregates.FocusSessionAggregateDeps{
		Base:     base,
		Policy:   cfg.Policy,
		Sessions: reposet.Sessions,
		Events:   reposet.LifecycleEvents,
	})
	completionAgg := aggregates.NewFocusCompletionAggregate(aggregates.FocusCompletionAggregateDeps{
		Base:             base,
		Policy:           cfg.Policy,
		Sessions:         reposet.Sessions,
		Users:            reposet.Users,
		Achievements:     reposet.Achievements,
		UserAchievements: reposet.UserAchievements,
	})

	judge, err := NewJudge(log, cfg)
	if err != nil {
		return Services{}, err
	}
	clock := services.SystemClock()

	decisions := services.NewDecisionCache(log, services.DecisionCacheDeps{
		Store:  reposet.DecisionCache,
		Hot:    services.NewRedisVerdictStore(rdb, cfg.Redis.Prefix, cfg.DecisionCacheRedisTTL),
		Judge:  judge,
		Policy: cfg.Policy,
		Clock:  clock,

		// Every judge attempt plus headroom for the cache reads and insert.
		SharedTimeout: time.Duration(cfg.Judge.MaxRetries+1)*cfg.Judge.AttemptTimeout + 5*time.Second,
	})

	sessions := services.NewFocusSessionService(log, services.FocusSessionServiceDeps{
		Users:           reposet.Users,
		Sessions:        reposet.Sessions,
		Aggregate:       sessionAgg,
		Completion:      completionAgg,
		Decisions:       decisions,
		Clock:           clock,
		DefaultLocation: cfg.DefaultLocation,
	})

	return Services{
		Judge:        judge,
		Decisions:    decisions,
		Sessions:     sessions,
		Achievements: services.NewAchievementService(log, reposet.Users, reposet.Achievements, reposet.UserAchievements),
	}, nil
}
