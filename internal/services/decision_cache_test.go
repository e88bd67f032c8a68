package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/focustube-backend/internal/data/repos"
	"github.com/yungbote/focustube-backend/internal/data/repos/testutil"
	types "github.com/yungbote/focustube-backend/internal/domain"
	focusrules "github.com/yungbote/focustube-backend/internal/modules/focus"
	"github.com/yungbote/focustube-backend/internal/platform/dbctx"
)

type memHotStore struct {
	mu   sync.Mutex
	m    map[string]Judgement
	gets int
	sets int
}

func newMemHotStore() *memHotStore { return &memHotStore{m: map[string]Judgement{}} }

func (s *memHotStore) Get(ctx context.Context, videoID, topic string) (Judgement, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	j, ok := s.m[topic+"|"+videoID]
	return j, ok, nil
}

func (s *memHotStore) Set(ctx context.Context, videoID, topic string, j Judgement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	s.m[topic+"|"+videoID] = j
	return nil
}

type countingJudge struct {
	calls int32
	fn    func() Judgement
}

func (j *countingJudge) Judge(ctx context.Context, topic, title, description string) Judgement {
	atomic.AddInt32(&j.calls, 1)
	return j.fn()
}

func newTestCache(t *testing.T, db *gorm.DB, hot HotVerdictStore, judge RelevanceJudge) DecisionCache {
	t.Helper()
	log := testutil.Logger(t)
	return NewDecisionCache(log, DecisionCacheDeps{
		Store:  repos.NewDecisionCacheRepo(db, log),
		Hot:    hot,
		Judge:  judge,
		Policy: focusrules.DefaultPolicy(),
		Clock:  &testutil.Clock{T: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
	})
}

func session(topic string) *types.FocusSession {
	return &types.FocusSession{ID: uuid.New(), OwnerID: uuid.New(), Topic: topic, Status: types.SessionStatusArmed}
}

func TestDecisionCache_SessionThenHotThenStoreThenJudge(t *testing.T) {
	db := testutil.DB(t)
	hot := newMemHotStore()
	judge := &countingJudge{fn: func() Judgement { return Judgement{Confidence: 0.8, Reason: "on topic"} }}
	cache := newTestCache(t, db, hot, judge)
	ctx := context.Background()

	s := session("calculus")
	v, err := cache.Resolve(ctx, s, "vid-00001", "Limits", "")
	require.NoError(t, err)
	assert.Equal(t, types.DecisionValid, v.Decision)
	assert.Equal(t, types.VerdictSourceJudge, v.Source)
	assert.Equal(t, int32(1), atomic.LoadInt32(&judge.calls))
	assert.Equal(t, 1, hot.sets)

	entry, err := repos.NewDecisionCacheRepo(db, testutil.Logger(t)).Get(dbctx.New(ctx), "vid-00001", "calculus")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 0.8, entry.Confidence)

	// Hot tier answers for another session.
	v, err = cache.Resolve(ctx, session("calculus"), "vid-00001", "Limits", "")
	require.NoError(t, err)
	assert.Equal(t, types.VerdictSourceCache, v.Source)
	assert.Equal(t, int32(1), atomic.LoadInt32(&judge.calls))

	// The durable store answers once the hot tier forgot the entry, and warms it.
	hot.m = map[string]Judgement{}
	v, err = cache.Resolve(ctx, session("calculus"), "vid-00001", "Limits", "")
	require.NoError(t, err)
	assert.Equal(t, types.VerdictSourceCache, v.Source)
	assert.Equal(t, 0.8, v.Confidence)
	assert.Equal(t, int32(1), atomic.LoadInt32(&judge.calls))
	assert.Len(t, hot.m, 1)

	// Session-local verdicts win over everything.
	s.RememberDecision("vid-00001", types.Verdict{Decision: types.DecisionInvalid, Confidence: 0.1, Reason: "stale"})
	v, err = cache.Resolve(ctx, s, "vid-00001", "Limits", "")
	require.NoError(t, err)
	assert.Equal(t, types.VerdictSourceSession, v.Source)
	assert.Equal(t, "stale", v.Reason)
}

func TestDecisionCache_TopicScopesEntries(t *testing.T) {
	db := testutil.DB(t)
	judge := &countingJudge{fn: func() Judgement { return Judgement{Confidence: 0.9, Reason: "x"} }}
	cache := newTestCache(t, db, nil, judge)
	ctx := context.Background()

	_, err := cache.Resolve(ctx, session("calculus"), "vid-00001", "Limits", "")
	require.NoError(t, err)
	_, err = cache.Resolve(ctx, session("physics"), "vid-00001", "Limits", "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&judge.calls))
}

func TestDecisionCache_DegradedVerdictStaysLocal(t *testing.T) {
	db := testutil.DB(t)
	hot := newMemHotStore()
	judge := &countingJudge{fn: func() Judgement {
		return Judgement{Confidence: 0, Reason: JudgeReasonError, Degraded: true}
	}}
	cache := newTestCache(t, db, hot, judge)
	ctx := context.Background()

	v, err := cache.Resolve(ctx, session("calculus"), "vid-00001", "Limits", "")
	require.NoError(t, err)
	assert.Equal(t, types.DecisionInvalid, v.Decision)
	assert.Equal(t, JudgeReasonError, v.Reason)

	var count int64
	require.NoError(t, db.Model(&types.DecisionCacheEntry{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Zero(t, hot.sets)

	_, err = cache.Resolve(ctx, session("calculus"), "vid-00001", "Limits", "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&judge.calls), "a degraded verdict is asked again next time")
}

func TestDecisionCache_ConcurrentMissesJudgeOnce(t *testing.T) {
	db := testutil.DB(t)
	judge := &countingJudge{fn: func() Judgement {
		time.Sleep(20 * time.Millisecond)
		return Judgement{Confidence: 0.6, Reason: "ok"}
	}}
	cache := newTestCache(t, db, nil, judge)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cache.Resolve(context.Background(), session("calculus"), "vid-00001", "Limits", "")
			assert.NoError(t, err)
			assert.Equal(t, types.DecisionValid, v.Decision)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&judge.calls))
}

type slowJudge struct {
	calls int32
	delay time.Duration
}

func (j *slowJudge) Judge(ctx context.Context, topic, title, description string) Judgement {
	atomic.AddInt32(&j.calls, 1)
	select {
	case <-time.After(j.delay):
		return Judgement{Confidence: 0.8, Reason: "on topic"}
	case <-ctx.Done():
		return Judgement{Confidence: 0, Reason: JudgeReasonError, Degraded: true}
	}
}

func TestDecisionCache_CancelledCallerDoesNotDegradeOthers(t *testing.T) {
	db := testutil.DB(t)
	judge := &slowJudge{delay: 80 * time.Millisecond}
	cache := newTestCache(t, db, nil, judge)

	first, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, firstErr = cache.Resolve(first, session("calculus"), "vid-00001", "Limits", "")
	}()
	time.Sleep(5 * time.Millisecond)

	v, err := cache.Resolve(context.Background(), session("calculus"), "vid-00001", "Limits", "")
	require.NoError(t, err)
	assert.Equal(t, types.DecisionValid, v.Decision)
	assert.Equal(t, "on topic", v.Reason)

	<-done
	assert.ErrorIs(t, firstErr, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&judge.calls))

	entry, err := repos.NewDecisionCacheRepo(db, testutil.Logger(t)).Get(dbctx.New(context.Background()), "vid-00001", "calculus")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 0.8, entry.Confidence)
}

func TestDecisionCache_EmptyReasonGetsDefault(t *testing.T) {
	db := testutil.DB(t)
	judge := &countingJudge{fn: func() Judgement { return Judgement{Confidence: 0.2} }}
	cache := newTestCache(t, db, nil, judge)

	v, err := cache.Resolve(context.Background(), session("calculus"), "vid-00001", "Limits", "")
	require.NoError(t, err)
	assert.Equal(t, "Confidence too low", v.Reason)
}

func TestDecisionCache_UnreachableRedisIsIgnored(t *testing.T) {
	db := testutil.DB(t)
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	hot := NewRedisVerdictStore(rdb, "test", time.Minute)
	require.NotNil(t, hot)

	_, _, err := hot.Get(context.Background(), "vid-00001", "calculus")
	require.Error(t, err)
	assert.False(t, errors.Is(err, goredis.Nil))

	judge := &countingJudge{fn: func() Judgement { return Judgement{Confidence: 0.9, Reason: "ok"} }}
	cache := newTestCache(t, db, hot, judge)
	v, err := cache.Resolve(context.Background(), session("calculus"), "vid-00001", "Limits", "")
	require.NoError(t, err)
	assert.Equal(t, types.DecisionValid, v.Decision)
}

func TestNewRedisVerdictStoreNilClient(t *testing.T) {
	assert.Nil(t, NewRedisVerdictStore(nil, "p", time.Minute))
}
