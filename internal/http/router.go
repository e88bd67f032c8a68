package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/focustube-backend/internal/http/handlers"
	httpMW "github.com/yungbote/focustube-backend/internal/http/middleware"
	"github.com/yungbote/focustube-backend/internal/observability"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AllowedOrigins []string
	// Service name reported on request spans; empty disables otelgin.
	TraceService string

	AuthMiddleware *httpMW.AuthMiddleware

	SessionHandler     *httpH.SessionHandler
	AchievementHandler *httpH.AchievementHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TraceService != "" {
		r.Use(otelgin.Middleware(cfg.TraceService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Focus sessions
		if cfg.SessionHandler != nil {
			protected.GET("/sessions/current", cfg.SessionHandler.GetCurrent)
			protected.POST("/sessions/start", cfg.SessionHandler.Start)
			protected.POST("/sessions/video-event", cfg.SessionHandler.VideoEvent)
			protected.POST("/sessions/:id/heartbeat", cfg.SessionHandler.Heartbeat)
			protected.POST("/sessions/:id/events", cfg.SessionHandler.LifecycleEvent)
			protected.POST("/sessions/:id/complete", cfg.SessionHandler.Complete)
			protected.POST("/sessions/:id/reset", cfg.SessionHandler.Reset)
		}

		// Achievements
		if cfg.AchievementHandler != nil {
			protected.GET("/achievements", cfg.AchievementHandler.List)
			protected.GET("/achievements/preview", cfg.AchievementHandler.Preview)
		}
	}

	return r
}
