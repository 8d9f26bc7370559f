package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/studentpulse-backend/internal/http/handlers"
	httpMW "github.com/yungbote/studentpulse-backend/internal/http/middleware"
	"github.com/yungbote/studentpulse-backend/internal/observability"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	// ServeMetrics mounts /metrics on the API listener.
	ServeMetrics bool
	// OtelService, when set, enables otelgin spans under that service name.
	OtelService string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	AuthHandler       *httpH.AuthHandler
	UserHandler       *httpH.UserHandler
	StudentHandler    *httpH.StudentHandler
	PredictionHandler *httpH.PredictionHandler
	AnalyticsHandler  *httpH.AnalyticsHandler
	ChatHandler       *httpH.ChatHandler
	RealtimeHandler   *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.OtelService != "" {
		r.Use(otelgin.Middleware(cfg.OtelService))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.ServeMetrics && cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
		if cfg.PredictionHandler != nil {
			api.POST("/predict/preview", cfg.PredictionHandler.Preview)
		}
	}

	protected := api.Group("")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/auth/refresh", cfg.AuthHandler.Refresh)
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Students: reads are owner-or-admin, enforced by the services
		if cfg.StudentHandler != nil {
			protected.GET("/me/student", cfg.StudentHandler.GetMine)
			protected.PUT("/me/student", cfg.StudentHandler.UpsertMine)
			protected.GET("/me/prediction", cfg.StudentHandler.GetMyPrediction)
			protected.GET("/students/:id", cfg.StudentHandler.Get)
		}
		if cfg.PredictionHandler != nil {
			protected.GET("/students/:id/prediction", cfg.PredictionHandler.Current)
			protected.GET("/students/:id/predictions", cfg.PredictionHandler.History)
		}

		// Assistant
		if cfg.ChatHandler != nil {
			protected.POST("/chatbot/chat", cfg.ChatHandler.Chat)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}
	}

	admin := protected.Group("")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
	}
	{
		if cfg.StudentHandler != nil {
			admin.GET("/students", cfg.StudentHandler.List)
			admin.GET("/students/count", cfg.StudentHandler.Count)
			admin.GET("/students/by-user/:user_id", cfg.StudentHandler.GetByUserID)
			admin.POST("/students", cfg.StudentHandler.Create)
			admin.PUT("/students/:id", cfg.StudentHandler.Update)
			admin.DELETE("/students/:id", cfg.StudentHandler.Delete)
		}
		if cfg.PredictionHandler != nil {
			admin.POST("/predictions", cfg.PredictionHandler.CreateForStudent)
			admin.POST("/predictions/backfill", cfg.PredictionHandler.Backfill)
		}
		if cfg.UserHandler != nil {
			admin.GET("/users", cfg.UserHandler.ListUsers)
		}

		// Analytics
		if cfg.AnalyticsHandler != nil {
			admin.GET("/analytics/dashboard", cfg.AnalyticsHandler.Dashboard)
			admin.GET("/analytics/stats", cfg.AnalyticsHandler.Stats)
			admin.GET("/analytics/performance-trends", cfg.AnalyticsHandler.PerformanceTrends)
			admin.GET("/analytics/risk-analysis", cfg.AnalyticsHandler.RiskAnalysis)
			admin.GET("/analytics/cohort-comparison", cfg.AnalyticsHandler.CohortComparison)
		}
	}

	return r
}
