package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/http"
	httpH "github.com/yungbote/studentpulse-backend/internal/http/handlers"
	httpMW "github.com/yungbote/studentpulse-backend/internal/http/middleware"
	"github.com/yungbote/studentpulse-backend/internal/observability"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
	"github.com/yungbote/studentpulse-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	User       *httpH.UserHandler
	Student    *httpH.StudentHandler
	Prediction *httpH.PredictionHandler
	Analytics  *httpH.AnalyticsHandler
	Chat       *httpH.ChatHandler
	Realtime   *httpH.RealtimeHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Auth:       httpH.NewAuthHandler(services.Auth),
		User:       httpH.NewUserHandler(services.User),
		Student:    httpH.NewStudentHandler(services.Student, services.Prediction),
		Prediction: httpH.NewPredictionHandler(services.Prediction, cfg.BackfillConcurrency),
		Analytics:  httpH.NewAnalyticsHandler(services.Analytics),
		Chat:       httpH.NewChatHandler(services.Chat),
		Realtime:   httpH.NewRealtimeHandler(log, sseHub),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	otelService := ""
	if cfg.Otel.Enabled {
		otelService = cfg.Otel.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServeMetrics:      cfg.MetricsEnabled && cfg.MetricsAddr == "",
		OtelService:       otelService,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    middleware.Auth,
		HealthHandler:     handlers.Health,
		AuthHandler:       handlers.Auth,
		UserHandler:       handlers.User,
		StudentHandler:    handlers.Student,
		PredictionHandler: handlers.Prediction,
		AnalyticsHandler:  handlers.Analytics,
		ChatHandler:       handlers.Chat,
		RealtimeHandler:   handlers.Realtime,
	})
}
