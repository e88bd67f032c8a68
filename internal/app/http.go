package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/focustube-backend/internal/http"
	httpH "github.com/yungbote/focustube-backend/internal/http/handlers"
	httpMW "github.com/yungbote/focustube-backend/internal/http/middleware"
	"github.com/yungbote/focustube-backend/internal/observability"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Session     *httpH.SessionHandler
	Achievement *httpH.AchievementHandler
}

func wireHandlers(log *logger.Logger, services Services, ping httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(map[string]httpH.Pinger{"database": ping}),
		Session:     httpH.NewSessionHandler(services.Sessions),
		Achievement: httpH.NewAchievementHandler(services.Achievements),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	traceService := ""
	if observability.TracingEnabled() {
		traceService = cfg.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		AllowedOrigins:     cfg.AllowedOrigins,
		TraceService:       traceService,
		AuthMiddleware:     middleware.Auth,
		HealthHandler:      handlers.Health,
		SessionHandler:     handlers.Session,
		AchievementHandler: handlers.Achievement,
	})
}

func dbPinger(db *gorm.DB) httpH.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
