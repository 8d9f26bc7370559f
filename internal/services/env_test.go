package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos"
	"github.com/yungbote/studentpulse-backend/internal/data/repos/testutil"
	"github.com/yungbote/studentpulse-backend/internal/observability"
	"github.com/yungbote/studentpulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/studentpulse-backend/internal/realtime"
)

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func (e *recordingEmitter) events(channel string) []realtime.SSEEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []realtime.SSEEvent
	for _, m := range e.msgs {
		if m.Channel == channel {
			out = append(out, m.Event)
		}
	}
	return out
}

type testEnv struct {
	db          *gorm.DB
	emitter     *recordingEmitter
	metrics     *observability.Metrics
	students    repos.StudentRepo
	predictions repos.PredictionRepo
	users       repos.UserRepo

	predictionSvc PredictionService
	studentSvc    StudentService
	authSvc       AuthService
	userSvc       UserService
	analyticsSvc  AnalyticsService
	chatSvc       ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	env := &testEnv{
		db:          db,
		emitter:     &recordingEmitter{},
		metrics:     observability.NewMetrics(),
		students:    repos.NewStudentRepo(db, log),
		predictions: repos.NewPredictionRepo(db, log),
		users:       repos.NewUserRepo(db, log),
	}
	tx := repos.NewGormTxRunner(db)
	notifier := NewStudentNotifier(env.emitter, env.metrics)
	env.predictionSvc = NewPredictionService(db, log, env.students, env.predictions, notifier, env.metrics)
	env.studentSvc = NewStudentService(db, log, tx, env.students, env.predictions, env.users, env.predictionSvc, notifier, env.metrics)
	env.authSvc = NewAuthService(db, log, tx, env.users, repos.NewUserTokenRepo(db, log), AuthConfig{
		JWTSecretKey: "test-secret",
		AccessTTL:    time.Minute,
		RefreshTTL:   time.Hour,
	})
	env.userSvc = NewUserService(db, log, env.users)
	env.analyticsSvc = NewAnalyticsService(db, log, env.students, env.predictions)
	env.chatSvc = NewChatService(db, log, env.students, env.predictions, env.analyticsSvc)
	return env
}

func asStudent(userID uuid.UUID, email string) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID: userID,
		Email:  email,
		Role:   ctxutil.RoleStudent,
	})
}

func asAdmin() context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID: uuid.New(),
		Email:  "admin@example.edu",
		Role:   ctxutil.RoleAdmin,
	})
}

func strPtr(v string) *string { return &v }
