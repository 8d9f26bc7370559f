package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/engine"
	"github.com/yungbote/studentpulse-backend/internal/observability"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

// Sources label why a prediction was generated.
const (
	SourceCreate   = "create"
	SourceUpdate   = "update"
	SourceAdHoc    = "adhoc"
	SourceBackfill = "backfill"
	SourceSelf     = "self"
)

type BackfillResult struct {
	Scanned   int `json:"scanned"`
	Generated int `json:"generated"`
	Failed    int `json:"failed"`
}

type PredictionService interface {
	Predict(f engine.Features) engine.Result
	PredictRaw(raw map[string]any) engine.Result
	PredictForStudent(dbc dbctx.Context, studentID uuid.UUID, raw map[string]any) (*types.Prediction, error)
	Generate(dbc dbctx.Context, s *types.Student, source string) (*types.Prediction, error)
	Current(dbc dbctx.Context, studentID uuid.UUID) (*types.Prediction, error)
	History(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Prediction, error)
	CurrentForStudents(dbc dbctx.Context, studentIDs []uuid.UUID) (map[uuid.UUID]*types.Prediction, error)
	BackfillMissing(ctx context.Context, concurrency int) (BackfillResult, error)
}

type predictionService struct {
	db             *gorm.DB
	log            *logger.Logger
	studentRepo    repos.StudentRepo
	predictionRepo repos.PredictionRepo
	notifier       StudentNotifier
	metrics        *observability.Metrics
}

func NewPredictionService(
	db *gorm.DB,
	log *logger.Logger,
	studentRepo repos.StudentRepo,
	predictionRepo repos.PredictionRepo,
	notifier StudentNotifier,
	metrics *observability.Metrics,
) PredictionService {
	serviceLog := log.With("service", "PredictionService")
	return &predictionService{
		db:             db,
		log:            serviceLog,
		studentRepo:    studentRepo,
		predictionRepo: predictionRepo,
		notifier:       notifier,
		metrics:        metrics,
	}
}

func (ps *predictionService) Predict(f engine.Features) engine.Result {
	return engine.Predict(f)
}

func (ps *predictionService) PredictRaw(raw map[string]any) engine.Result {
	return engine.PredictRaw(raw)
}

// PredictForStudent scores the submitted values, not the stored metrics,
// and appends the result to the student's history.
func (ps *predictionService) PredictForStudent(dbc dbctx.Context, studentID uuid.UUID, raw map[string]any) (*types.Prediction, error) {
	s, err := ps.studentRepo.GetByID(dbc, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if s == nil {
		return nil, errStudentNotFound
	}
	res := engine.PredictRaw(raw)
	return ps.persist(dbc, s, res, SourceAdHoc)
}

func (ps *predictionService) Generate(dbc dbctx.Context, s *types.Student, source string) (*types.Prediction, error) {
	if s == nil || s.ID == uuid.Nil {
		return nil, errStudentNotFound
	}
	return ps.persist(dbc, s, engine.Predict(s.Features()), source)
}

func (ps *predictionService) persist(dbc dbctx.Context, s *types.Student, res engine.Result, source string) (*types.Prediction, error) {
	ctx, span := observability.StartSpan(dbc.Context(), "prediction.generate",
		attribute.String("student.id", s.ID.String()),
		attribute.String("prediction.source", source),
	)
	defer span.End()

	p, err := types.NewPrediction(s.ID, res)
	if err != nil {
		ps.metrics.IncPredictionFailure(source)
		span.RecordError(err)
		return nil, err
	}
	if err := ps.predictionRepo.Create(dbctx.Context{Ctx: ctx, Tx: dbc.Tx}, p); err != nil {
		ps.metrics.IncPredictionFailure(source)
		span.RecordError(err)
		return nil, fmt.Errorf("store prediction: %w", err)
	}
	span.SetAttributes(attribute.String("prediction.tier", string(p.PredictedPerformance)))
	ps.metrics.ObservePrediction(string(p.PredictedPerformance), source, p.RiskScore)
	ps.log.Debug("Prediction stored",
		"student_id", s.ID,
		"tier", p.PredictedPerformance,
		"risk_score", p.RiskScore,
		"source", source,
	)
	if dbc.Tx == nil {
		ps.notifier.PredictionCreated(ctx, s, p)
	}
	return p, nil
}

// Current returns nil, nil when the student exists but has no prediction.
func (ps *predictionService) Current(dbc dbctx.Context, studentID uuid.UUID) (*types.Prediction, error) {
	if _, err := ps.loadReadable(dbc, studentID); err != nil {
		return nil, err
	}
	p, err := ps.predictionRepo.LatestByStudentID(dbc, studentID)
	if err != nil {
		return nil, fmt.Errorf("load current prediction: %w", err)
	}
	return p, nil
}

func (ps *predictionService) History(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Prediction, error) {
	if _, err := ps.loadReadable(dbc, studentID); err != nil {
		return nil, err
	}
	rows, err := ps.predictionRepo.ListByStudentID(dbc, studentID)
	if err != nil {
		return nil, fmt.Errorf("load prediction history: %w", err)
	}
	return rows, nil
}

func (ps *predictionService) CurrentForStudents(dbc dbctx.Context, studentIDs []uuid.UUID) (map[uuid.UUID]*types.Prediction, error) {
	return ps.predictionRepo.LatestForStudents(dbc, studentIDs)
}

func (ps *predictionService) loadReadable(dbc dbctx.Context, studentID uuid.UUID) (*types.Student, error) {
	s, err := ps.studentRepo.GetByID(dbc, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if s == nil {
		return nil, errStudentNotFound
	}
	if !canAccessStudent(dbc.Context(), s) {
		return nil, forbidden()
	}
	return s, nil
}

// BackfillMissing generates a first prediction for every student that has
// none. Individual failures are counted, not returned.
func (ps *predictionService) BackfillMissing(ctx context.Context, concurrency int) (BackfillResult, error) {
	var out BackfillResult
	students, err := ps.studentRepo.ListWithoutPrediction(dbctx.Context{Ctx: ctx})
	if err != nil {
		return out, fmt.Errorf("list students without prediction: %w", err)
	}
	out.Scanned = len(students)
	if len(students) == 0 {
		return out, nil
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	var generated, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, s := range students {
		s := s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := ps.Generate(dbctx.Context{Ctx: gctx}, s, SourceBackfill); err != nil {
				failed.Add(1)
				ps.log.Warn("Backfill prediction failed", "student_id", s.ID, "error", err)
				return nil
			}
			generated.Add(1)
			return nil
		})
	}
	err = g.Wait()
	out.Generated = int(generated.Load())
	out.Failed = int(failed.Load())
	ps.log.Info("Prediction backfill finished",
		"scanned", out.Scanned,
		"generated", out.Generated,
		"failed", out.Failed,
	)
	return out, err
}

// storedAdvice decodes the advice on p. An unreadable column is logged and
// read as no advice.
func storedAdvice(log *logger.Logger, p *types.Prediction) []string {
	recs, err := p.RecommendationList()
	if err != nil {
		log.Warn("Stored recommendations unreadable", "prediction_id", p.ID, "error", err)
	}
	return recs
}
