package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/db"
	httpserver "github.com/yungbote/studentpulse-backend/internal/http"
	"github.com/yungbote/studentpulse-backend/internal/observability"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
	"github.com/yungbote/studentpulse-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics

	store        *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New loads configuration and wires the whole graph. It does not migrate
// the schema or start background work.
func New(ctx context.Context) (*App, error) {
	LoadDotEnv()
	cfg := LoadConfig(nil)
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg = LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	store, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := store.DB()

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
		if sqlDB, err := theDB.DB(); err == nil {
			metrics.RegisterDB(sqlDB, cfg.DB.Driver)
		}
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	ssehub := realtime.NewSSEHub(log)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, ssehub, metrics)
	handlerset := wireHandlers(theDB, log, cfg, serviceset, ssehub)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		SSEHub:       ssehub,
		Metrics:      metrics,
		store:        store,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Migrate() error {
	if a == nil || a.store == nil {
		return fmt.Errorf("app not initialized")
	}
	if err := a.store.AutoMigrateAll(); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Start launches the Redis forwarder and the standalone metrics listener.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
		a.Log.Info("SSE bus forwarder started", "channel", a.Cfg.Redis.Channel)
	}
	if a.Cfg.MetricsAddr != "" {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	}
	return nil
}

// Run blocks serving HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return httpserver.NewServer(a.Log, a.Router).Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
