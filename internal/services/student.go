package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/engine"
	"github.com/yungbote/studentpulse-backend/internal/observability"
	"github.com/yungbote/studentpulse-backend/internal/platform/apierr"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

const CodeStudentExists = "student_exists"

// StudentInput carries the writable fields of a student record. Nil fields
// are left untouched on update.
type StudentInput struct {
	UserID               *uuid.UUID
	Name                 *string
	Email                *string
	Major                *string
	EnrollmentYear       *int
	Metrics              engine.PartialFeatures
	SocioAcademicFactors map[string]any
}

type StudentWithPrediction struct {
	Student    *types.Student    `json:"student"`
	Prediction *types.Prediction `json:"prediction"`
}

type StudentService interface {
	Create(ctx context.Context, in StudentInput) (*StudentWithPrediction, error)
	Update(ctx context.Context, id uuid.UUID, in StudentInput) (*StudentWithPrediction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Student, error)
	GetWithCurrent(dbc dbctx.Context, id uuid.UUID) (*StudentWithPrediction, error)
	List(dbc dbctx.Context, offset, limit int) ([]*StudentWithPrediction, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Student, error)
	Count(dbc dbctx.Context) (int64, error)
	GetMine(dbc dbctx.Context) (*types.Student, error)
	UpsertMyAcademicDetails(ctx context.Context, in StudentInput) (*StudentWithPrediction, error)
}

type studentService struct {
	db             *gorm.DB
	log            *logger.Logger
	tx             repos.TxRunner
	studentRepo    repos.StudentRepo
	predictionRepo repos.PredictionRepo
	userRepo       repos.UserRepo
	predictions    PredictionService
	notifier       StudentNotifier
	metrics        *observability.Metrics
}

func NewStudentService(
	db *gorm.DB,
	log *logger.Logger,
	tx repos.TxRunner,
	studentRepo repos.StudentRepo,
	predictionRepo repos.PredictionRepo,
	userRepo repos.UserRepo,
	predictions PredictionService,
	notifier StudentNotifier,
	metrics *observability.Metrics,
) StudentService {
	serviceLog := log.With("service", "StudentService")
	return &studentService{
		db:             db,
		log:            serviceLog,
		tx:             tx,
		studentRepo:    studentRepo,
		predictionRepo: predictionRepo,
		userRepo:       userRepo,
		predictions:    predictions,
		notifier:       notifier,
		metrics:        metrics,
	}
}

func (ss *studentService) Create(ctx context.Context, in StudentInput) (*StudentWithPrediction, error) {
	name := trimPtr(in.Name)
	email := strings.ToLower(trimPtr(in.Email))
	if name == "" {
		return nil, apierr.Validation(CodeInvalidInput, errors.New("name is required"))
	}
	if email == "" {
		return nil, apierr.Validation(CodeInvalidInput, errors.New("email is required"))
	}
	dbc := dbctx.Context{Ctx: ctx}

	existing, err := ss.studentRepo.GetByEmail(dbc, email)
	if err != nil {
		return nil, fmt.Errorf("check student email: %w", err)
	}
	if existing != nil {
		return nil, apierr.Conflict(CodeEmailTaken, fmt.Errorf("student with email %s already exists", email))
	}
	if in.UserID != nil && *in.UserID != uuid.Nil {
		linked, err := ss.studentRepo.GetByUserID(dbc, *in.UserID)
		if err != nil {
			return nil, fmt.Errorf("check student user link: %w", err)
		}
		if linked != nil {
			return nil, apierr.Conflict(CodeStudentExists, errors.New("user already has a student record"))
		}
	}

	s := &types.Student{
		UserID: in.UserID,
		Name:   name,
		Email:  email,
	}
	applyProfile(s, in)
	s.ApplyMetrics(in.Metrics)
	if err := ss.studentRepo.Create(dbc, s); err != nil {
		return nil, mapRepoErr(err, CodeEmailTaken)
	}
	ss.metrics.IncLifecycle("create")
	ss.log.Info("Student created", "student_id", s.ID)

	return &StudentWithPrediction{Student: s, Prediction: ss.generate(ctx, s, SourceCreate)}, nil
}

func (ss *studentService) Update(ctx context.Context, id uuid.UUID, in StudentInput) (*StudentWithPrediction, error) {
	dbc := dbctx.Context{Ctx: ctx}
	s, err := ss.studentRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if s == nil {
		return nil, errStudentNotFound
	}
	if err := ss.applyUpdate(dbc, s, in); err != nil {
		return nil, err
	}
	if err := ss.studentRepo.Update(dbc, s); err != nil {
		return nil, mapRepoErr(err, CodeEmailTaken)
	}
	ss.metrics.IncLifecycle("update")
	ss.notifier.StudentUpdated(ctx, s)

	return &StudentWithPrediction{Student: s, Prediction: ss.generate(ctx, s, SourceUpdate)}, nil
}

// applyUpdate copies the set fields of in onto s, rejecting an email or
// user link already owned by another student.
func (ss *studentService) applyUpdate(dbc dbctx.Context, s *types.Student, in StudentInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apierr.Validation(CodeInvalidInput, errors.New("name must not be empty"))
		}
		s.Name = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return apierr.Validation(CodeInvalidInput, errors.New("email must not be empty"))
		}
		if email != s.Email {
			other, err := ss.studentRepo.GetByEmail(dbc, email)
			if err != nil {
				return fmt.Errorf("check student email: %w", err)
			}
			if other != nil && other.ID != s.ID {
				return apierr.Conflict(CodeEmailTaken, fmt.Errorf("student with email %s already exists", email))
			}
			s.Email = email
		}
	}
	if in.UserID != nil && *in.UserID != uuid.Nil && (s.UserID == nil || *s.UserID != *in.UserID) {
		other, err := ss.studentRepo.GetByUserID(dbc, *in.UserID)
		if err != nil {
			return fmt.Errorf("check student user link: %w", err)
		}
		if other != nil && other.ID != s.ID {
			return apierr.Conflict(CodeStudentExists, errors.New("user already has a student record"))
		}
		uid := *in.UserID
		s.UserID = &uid
	}
	applyProfile(s, in)
	s.ApplyMetrics(in.Metrics)
	return nil
}

// generate appends a prediction for s. The record write already succeeded,
// so a failure here is logged and counted instead of returned.
func (ss *studentService) generate(ctx context.Context, s *types.Student, source string) *types.Prediction {
	p, err := ss.predictions.Generate(dbctx.Context{Ctx: ctx}, s, source)
	if err != nil {
		ss.log.Error("Prediction generation failed", "student_id", s.ID, "source", source, "error", err)
		return nil
	}
	return p
}

func (ss *studentService) Delete(ctx context.Context, id uuid.UUID) error {
	var (
		userID  *uuid.UUID
		removed int64
	)
	err := ss.tx.InTx(ctx, func(dbc dbctx.Context) error {
		s, err := ss.studentRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load student: %w", err)
		}
		if s == nil {
			return errStudentNotFound
		}
		userID = s.UserID
		if removed, err = ss.predictionRepo.DeleteByStudentID(dbc, id); err != nil {
			return fmt.Errorf("delete predictions: %w", err)
		}
		rows, err := ss.studentRepo.DeleteByID(dbc, id)
		if err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		if rows == 0 {
			return errStudentNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	ss.metrics.IncLifecycle("delete")
	ss.log.Info("Student deleted", "student_id", id, "predictions_removed", removed)
	ss.notifier.StudentDeleted(ctx, id, userID)
	return nil
}

func (ss *studentService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Student, error) {
	s, err := ss.studentRepo.GetByID(dbc, id)
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

func (ss *studentService) GetWithCurrent(dbc dbctx.Context, id uuid.UUID) (*StudentWithPrediction, error) {
	s, err := ss.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	p, err := ss.predictionRepo.LatestByStudentID(dbc, s.ID)
	if err != nil {
		return nil, fmt.Errorf("load current prediction: %w", err)
	}
	return &StudentWithPrediction{Student: s, Prediction: p}, nil
}

func (ss *studentService) List(dbc dbctx.Context, offset, limit int) ([]*StudentWithPrediction, error) {
	students, err := ss.studentRepo.List(dbc, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	current, err := ss.predictionRepo.LatestForStudents(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load current predictions: %w", err)
	}
	out := make([]*StudentWithPrediction, 0, len(students))
	for _, s := range students {
		out = append(out, &StudentWithPrediction{Student: s, Prediction: current[s.ID]})
	}
	return out, nil
}

func (ss *studentService) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Student, error) {
	s, err := ss.studentRepo.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load student by user: %w", err)
	}
	if s == nil {
		return nil, errStudentNotFound
	}
	if !canAccessStudent(dbc.Context(), s) {
		return nil, forbidden()
	}
	return s, nil
}

func (ss *studentService) Count(dbc dbctx.Context) (int64, error) {
	return ss.studentRepo.Count(dbc)
}

// GetMine resolves the caller's own record: by user link first, then by
// account email for records created before the account existed.
func (ss *studentService) GetMine(dbc dbctx.Context) (*types.Student, error) {
	rd, err := requireAuth(dbc.Context())
	if err != nil {
		return nil, err
	}
	s, err := ss.studentRepo.GetByUserID(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load student by user: %w", err)
	}
	if s == nil && rd.Email != "" {
		if s, err = ss.studentRepo.GetByEmail(dbc, rd.Email); err != nil {
			return nil, fmt.Errorf("load student by email: %w", err)
		}
	}
	if s == nil {
		return nil, errStudentNotFound
	}
	return s, nil
}

func (ss *studentService) UpsertMyAcademicDetails(ctx context.Context, in StudentInput) (*StudentWithPrediction, error) {
	rd, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	uid := rd.UserID
	in.UserID = &uid
	// The account email is authoritative for self-service records.
	in.Email = nil

	s, err := ss.GetMine(dbctx.Context{Ctx: ctx})
	switch {
	case err == nil:
		return ss.Update(ctx, s.ID, in)
	case !apierr.IsNotFound(err):
		return nil, err
	}

	users, err := ss.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.NotFound(CodeUserNotFound, errors.New("user not found"))
	}
	u := users[0]
	email := u.Email
	in.Email = &email
	if trimPtr(in.Name) == "" {
		name := u.Name
		in.Name = &name
	}
	return ss.Create(ctx, in)
}

func applyProfile(s *types.Student, in StudentInput) {
	if in.Major != nil {
		s.Major = strings.TrimSpace(*in.Major)
	}
	if in.EnrollmentYear != nil {
		s.EnrollmentYear = *in.EnrollmentYear
	}
	if in.SocioAcademicFactors != nil {
		s.SocioAcademicFactors = datatypes.JSONMap(in.SocioAcademicFactors)
	}
}

func trimPtr(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
