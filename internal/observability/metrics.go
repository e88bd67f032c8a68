package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/focustube-backend/internal/platform/envutil"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	judgeRequests *CounterVec
	judgeLatency  *HistogramVec
	judgeTokens   *CounterVec

	verdicts      *CounterVec
	cacheLookups  *CounterVec
	transitions   *CounterVec
	heartbeats    *CounterVec
	focusSeconds  *CounterVec
	completions   *CounterVec
	unlocks       *CounterVec
	lifecycleSeen *CounterVec

	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Enabled reports METRICS_ENABLED.
func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics registry, or returns nil when metrics
// are disabled. Every method is safe on a nil receiver.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New returns an unregistered registry; tests use it directly.
func New() *Metrics {
	latency := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	return &Metrics{
		apiRequests: NewCounterVec("ft_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("ft_api_request_duration_seconds", "API latency by method/route/status.", []string{"method", "route", "status"}, latency),
		apiInflight: NewGauge("ft_api_inflight_requests", "In-flight API requests."),

		judgeRequests: NewCounterVec("ft_judge_requests_total", "Relevance judge calls by provider/status.", []string{"provider", "status"}),
		judgeLatency:  NewHistogramVec("ft_judge_request_duration_seconds", "Relevance judge latency by provider/status.", []string{"provider", "status"}, []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16}),
		judgeTokens:   NewCounterVec("ft_judge_tokens_total", "Relevance judge tokens by model/kind.", []string{"model", "kind"}),

		verdicts:      NewCounterVec("ft_verdicts_total", "Resolved verdicts by source/decision.", []string{"source", "decision"}),
		cacheLookups:  NewCounterVec("ft_decision_cache_lookups_total", "Decision cache lookups by tier/result.", []string{"tier", "result"}),
		transitions:   NewCounterVec("ft_session_transitions_total", "Session status transitions by status/reason.", []string{"status", "reason"}),
		heartbeats:    NewCounterVec("ft_heartbeats_total", "Heartbeats by outcome.", []string{"outcome"}),
		focusSeconds:  NewCounterVec("ft_focus_seconds_total", "Credited focus seconds.", []string{"kind"}),
		completions:   NewCounterVec("ft_session_completions_total", "Completion attempts by result.", []string{"result"}),
		unlocks:       NewCounterVec("ft_achievement_unlocks_total", "Achievement unlocks by condition type.", []string{"condition"}),
		lifecycleSeen: NewCounterVec("ft_lifecycle_events_total", "Lifecycle events by type/outcome.", []string{"type", "outcome"}),

		aggregateOps:       NewCounterVec("ft_aggregate_operations_total", "Aggregate writes by operation/status.", []string{"op", "status"}),
		aggregateLatency:   NewHistogramVec("ft_aggregate_operation_duration_seconds", "Aggregate write latency by operation/status.", []string{"op", "status"}, latency),
		aggregateConflicts: NewCounterVec("ft_aggregate_conflicts_total", "Aggregate writes that ended in a conflict.", []string{"op"}),
		aggregateRetries:   NewCounterVec("ft_aggregate_retries_total", "Aggregate write attempts retried after a conflict.", []string{"op"}),

		dbStats:   NewGaugeVec("ft_db_pool", "database/sql pool stats.", []string{"stat"}),
		redisUp:   NewGauge("ft_redis_up", "1 when the last Redis ping succeeded."),
		redisPing: NewGauge("ft_redis_ping_seconds", "Latency of the last Redis ping."),
	}
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, pw := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.judgeRequests, m.judgeLatency, m.judgeTokens,
		m.verdicts, m.cacheLookups, m.transitions, m.heartbeats, m.focusSeconds,
		m.completions, m.unlocks, m.lifecycleSeen,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.WriteHTTP)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

// ObserveJudgeRequest records one scorer attempt. status is an HTTP code,
// "timeout", "error" or "ok".
func (m *Metrics) ObserveJudgeRequest(provider, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.judgeRequests.Inc(provider, status)
	if dur > 0 {
		m.judgeLatency.Observe(dur.Seconds(), provider, status)
	}
}

func (m *Metrics) AddJudgeTokens(model string, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	if inputTokens > 0 {
		m.judgeTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.judgeTokens.Add(float64(outputTokens), model, "output")
	}
}

func (m *Metrics) IncVerdict(source, decision string) {
	if m != nil {
		m.verdicts.Inc(source, decision)
	}
}

// IncCacheLookup counts a decision cache probe; result is "hit", "miss" or "error".
func (m *Metrics) IncCacheLookup(tier, result string) {
	if m != nil {
		m.cacheLookups.Inc(tier, result)
	}
}

func (m *Metrics) IncTransition(status, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.transitions.Inc(status, reason)
}

func (m *Metrics) ObserveHeartbeat(accepted bool, gainedSeconds int64) {
	if m == nil {
		return
	}
	m.heartbeats.Inc(strconv.FormatBool(accepted))
	if gainedSeconds > 0 {
		m.focusSeconds.Add(float64(gainedSeconds), "heartbeat")
	}
}

func (m *Metrics) IncLifecycleEvent(eventType, outcome string) {
	if m != nil {
		m.lifecycleSeen.Inc(eventType, outcome)
	}
}

func (m *Metrics) IncCompletion(result string) {
	if m != nil {
		m.completions.Inc(result)
	}
}

func (m *Metrics) IncUnlock(condition string) {
	if m != nil {
		m.unlocks.Inc(condition)
	}
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m != nil {
		m.aggregateConflicts.Inc(op)
	}
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m != nil {
		m.aggregateRetries.Inc(op)
	}
}

func scrapeInterval() time.Duration {
	return envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

// StartDBCollector samples the sql pool until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings rdb every scrape interval. The client is owned by
// the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
