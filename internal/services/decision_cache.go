package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/focustube-backend/internal/data/repos"
	types "github.com/yungbote/focustube-backend/internal/domain"
	focusrules "github.com/yungbote/focustube-backend/internal/modules/focus"
	"github.com/yungbote/focustube-backend/internal/observability"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
	"github.com/yungbote/focustube-backend/internal/platform/redisx"
)

// HotVerdictStore is an optional fast tier in front of the durable cache.
// Misses report ok=false with a nil error.
type HotVerdictStore interface {
	Get(ctx context.Context, videoID, topic string) (j Judgement, ok bool, err error)
	Set(ctx context.Context, videoID, topic string, j Judgement) error
}

type redisVerdictStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

type redisVerdict struct {
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// NewRedisVerdictStore returns nil when rdb is nil so callers can pass the
// result of redisx.New straight through.
func NewRedisVerdictStore(rdb *goredis.Client, prefix string, ttl time.Duration) HotVerdictStore {
	if rdb == nil {
		return nil
	}
	return &redisVerdictStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *redisVerdictStore) key(videoID, topic string) string {
	return redisx.Key(s.prefix, "decision", topic, videoID)
}

func (s *redisVerdictStore) Get(ctx context.Context, videoID, topic string) (Judgement, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key(videoID, topic)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Judgement{}, false, nil
	}
	if err != nil {
		return Judgement{}, false, err
	}
	var v redisVerdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return Judgement{}, false, err
	}
	return Judgement{Confidence: v.Confidence, Reason: v.Reason}, true, nil
}

func (s *redisVerdictStore) Set(ctx context.Context, videoID, topic string, j Judgement) error {
	raw, err := json.Marshal(redisVerdict{Confidence: j.Confidence, Reason: j.Reason})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(videoID, topic), raw, s.ttl).Err()
}

// DecisionCache resolves a verdict for one video under the session's topic:
// session-local map, then the hot tier, then the durable store, then the judge.
type DecisionCache interface {
	Resolve(ctx context.Context, s *types.FocusSession, videoID, title, description string) (types.Verdict, error)
}

type DecisionCacheDeps struct {
	Store  repos.DecisionCacheRepo
	Hot    HotVerdictStore
	Judge  RelevanceJudge
	Policy focusrules.Policy
	Clock  Clock

	// SharedTimeout bounds one merged lookup, which outlives any single caller.
	SharedTimeout time.Duration
}

const defaultSharedLookupTimeout = 30 * time.Second

type decisionCache struct {
	log  *logger.Logger
	deps DecisionCacheDeps
	sf   singleflight.Group
}

func NewDecisionCache(baseLog *logger.Logger, deps DecisionCacheDeps) DecisionCache {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.SharedTimeout <= 0 {
		deps.SharedTimeout = defaultSharedLookupTimeout
	}
	return &decisionCache{
		log:  baseLog.With("service", "DecisionCache"),
		deps: deps,
	}
}

func (c *decisionCache) Resolve(ctx context.Context, s *types.FocusSession, videoID, title, description string) (types.Verdict, error) {
	metrics := observability.Current()
	if v, ok := s.LookupDecision(videoID); ok {
		metrics.IncCacheLookup(types.VerdictSourceSession, "hit")
		v.Source = types.VerdictSourceSession
		return v, nil
	}
	metrics.IncCacheLookup(types.VerdictSourceSession, "miss")

	topic := s.Topic
	key := topic + "\x00" + videoID
	// The merged lookup serves every waiting caller, so it must not inherit
	// the first caller's cancellation.
	ch := c.sf.DoChan(key, func() (any, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.deps.SharedTimeout)
		defer cancel()
		return c.resolveShared(sharedCtx, videoID, topic, title, description)
	})
	select {
	case <-ctx.Done():
		return types.Verdict{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return types.Verdict{}, res.Err
		}
		return res.Val.(types.Verdict), nil
	}
}

func (c *decisionCache) resolveShared(ctx context.Context, videoID, topic, title, description string) (types.Verdict, error) {
	metrics := observability.Current()

	if c.deps.Hot != nil {
		j, ok, err := c.deps.Hot.Get(ctx, videoID, topic)
		switch {
		case err != nil:
			metrics.IncCacheLookup("redis", "error")
			c.log.Warn("Hot verdict lookup failed", "video_id", videoID, "error", err)
		case ok:
			metrics.IncCacheLookup("redis", "hit")
			return c.verdict(j, types.VerdictSourceCache), nil
		default:
			metrics.IncCacheLookup("redis", "miss")
		}
	}

	dbc := dbctx.New(ctx)
	entry, err := c.deps.Store.Get(dbc, videoID, topic)
	if err != nil {
		return types.Verdict{}, err
	}
	if entry != nil {
		metrics.IncCacheLookup("db", "hit")
		j := Judgement{Confidence: entry.Confidence, Reason: entry.Reason}
		c.warmHot(ctx, videoID, topic, j)
		return c.verdict(j, types.VerdictSourceCache), nil
	}
	metrics.IncCacheLookup("db", "miss")

	j := c.deps.Judge.Judge(ctx, topic, title, description)
	if j.Degraded {
		// Kept session-local only; a transient outage must not become a global fact.
		return c.verdict(j, types.VerdictSourceJudge), nil
	}

	inserted, err := c.deps.Store.InsertIfAbsent(dbc, &types.DecisionCacheEntry{
		VideoID:    videoID,
		Topic:      topic,
		Confidence: j.Confidence,
		Reason:     j.Reason,
		CheckedAt:  c.deps.Clock.Now().UTC(),
	})
	if err != nil {
		return types.Verdict{}, err
	}
	if !inserted {
		// Another replica judged first; its verdict is the durable one.
		if existing, err := c.deps.Store.Get(dbc, videoID, topic); err == nil && existing != nil {
			j = Judgement{Confidence: existing.Confidence, Reason: existing.Reason}
		}
	}
	c.warmHot(ctx, videoID, topic, j)
	return c.verdict(j, types.VerdictSourceJudge), nil
}

func (c *decisionCache) warmHot(ctx context.Context, videoID, topic string, j Judgement) {
	if c.deps.Hot == nil {
		return
	}
	if err := c.deps.Hot.Set(ctx, videoID, topic, j); err != nil {
		c.log.Warn("Hot verdict write failed", "video_id", videoID, "error", err)
	}
}

func (c *decisionCache) verdict(j Judgement, source string) types.Verdict {
	v := c.deps.Policy.Threshold(j.Confidence, j.Reason, source)
	if v.Reason == "" {
		if v.Valid() {
			v.Reason = "Relevant video"
		} else {
			v.Reason = "Confidence too low"
		}
	}
	return v
}
