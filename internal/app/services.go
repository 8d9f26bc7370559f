package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/observability"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
	"github.com/yungbote/studentpulse-backend/internal/realtime"
	"github.com/yungbote/studentpulse-backend/internal/services"
)

type Services struct {
	Emitter    services.SSEEmitter
	Notifier   services.StudentNotifier
	Auth       services.AuthService
	User       services.UserService
	Prediction services.PredictionService
	Student    services.StudentService
	Analytics  services.AnalyticsService
	Chat       services.ChatService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, hub *realtime.SSEHub, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	// With a bus every instance's forwarder feeds its own hub, so publish only.
	var emitter services.SSEEmitter = &services.HubEmitter{Hub: hub}
	if clients.SSEBus != nil {
		emitter = &services.RedisEmitter{Bus: clients.SSEBus, Log: log}
	}
	notifier := services.NewStudentNotifier(emitter, metrics)

	auth := services.NewAuthService(db, log, repos.Tx, repos.User, repos.UserToken, cfg.Auth)
	prediction := services.NewPredictionService(db, log, repos.Student, repos.Prediction, notifier, metrics)
	student := services.NewStudentService(db, log, repos.Tx, repos.Student, repos.Prediction, repos.User, prediction, notifier, metrics)
	analytics := services.NewAnalyticsService(db, log, repos.Student, repos.Prediction)

	return Services{
		Emitter:    emitter,
		Notifier:   notifier,
		Auth:       auth,
		User:       services.NewUserService(db, log, repos.User),
		Prediction: prediction,
		Student:    student,
		Analytics:  analytics,
		Chat:       services.NewChatService(db, log, repos.Student, repos.Prediction, analytics),
	}
}
