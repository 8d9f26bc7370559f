package student

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

// PredictionRepo is append-only: rows are never updated, and they are
// removed only together with their student.
type PredictionRepo interface {
	Create(dbc dbctx.Context, p *types.Prediction) error
	ListByStudentID(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Prediction, error)
	LatestByStudentID(dbc dbctx.Context, studentID uuid.UUID) (*types.Prediction, error)
	LatestForStudents(dbc dbctx.Context, studentIDs []uuid.UUID) (map[uuid.UUID]*types.Prediction, error)
	LatestAll(dbc dbctx.Context) (map[uuid.UUID]*types.Prediction, error)
	DeleteByStudentID(dbc dbctx.Context, studentID uuid.UUID) (int64, error)
	ListAll(dbc dbctx.Context, limit int) ([]*types.Prediction, error)
}

type predictionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPredictionRepo(db *gorm.DB, baseLog *logger.Logger) PredictionRepo {
	repoLog := baseLog.With("repo", "PredictionRepo")
	return &predictionRepo{db: db, log: repoLog}
}

// newestFirst is the one ordering used for "current" and history reads.
// Create assigns time-ordered v7 ids, so the id tie-break follows write order
// when two rows share a timestamp.
const newestFirst = "created_at DESC, id DESC"

func (r *predictionRepo) Create(dbc dbctx.Context, p *types.Prediction) error {
	transaction := dbc.DB(r.db)
	if p == nil {
		return nil
	}
	if p.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("prediction id: %w", err)
		}
		p.ID = id
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := transaction.WithContext(dbc.Context()).Omit("Student").Create(p).Error; err != nil {
		return repoerr.MapError("prediction.create", err)
	}
	return nil
}

func (r *predictionRepo) ListByStudentID(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Prediction, error) {
	transaction := dbc.DB(r.db)
	results := []*types.Prediction{}
	if studentID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Context()).
		Where("student_id = ?", studentID).
		Order(newestFirst).
		Find(&results).Error; err != nil {
		return nil, repoerr.MapError("prediction.list_by_student", err)
	}
	return results, nil
}

// LatestByStudentID returns nil, nil when the student has no predictions.
func (r *predictionRepo) LatestByStudentID(dbc dbctx.Context, studentID uuid.UUID) (*types.Prediction, error) {
	transaction := dbc.DB(r.db)
	if studentID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Prediction
	if err := transaction.WithContext(dbc.Context()).
		Where("student_id = ?", studentID).
		Order(newestFirst).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, repoerr.MapError("prediction.latest", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// notSuperseded keeps only the newest row per student under newestFirst.
const notSuperseded = `NOT EXISTS (
	SELECT 1 FROM prediction newer
	WHERE newer.student_id = prediction.student_id
	AND (newer.created_at > prediction.created_at
		OR (newer.created_at = prediction.created_at AND newer.id > prediction.id))
)`

func (r *predictionRepo) LatestForStudents(dbc dbctx.Context, studentIDs []uuid.UUID) (map[uuid.UUID]*types.Prediction, error) {
	out := map[uuid.UUID]*types.Prediction{}
	if len(studentIDs) == 0 {
		return out, nil
	}
	transaction := dbc.DB(r.db)
	var rows []*types.Prediction
	if err := transaction.WithContext(dbc.Context()).
		Where("student_id IN ?", studentIDs).
		Where(notSuperseded).
		Find(&rows).Error; err != nil {
		return nil, repoerr.MapError("prediction.latest_for_students", err)
	}
	for _, p := range rows {
		out[p.StudentID] = p
	}
	return out, nil
}

func (r *predictionRepo) LatestAll(dbc dbctx.Context) (map[uuid.UUID]*types.Prediction, error) {
	transaction := dbc.DB(r.db)
	var rows []*types.Prediction
	if err := transaction.WithContext(dbc.Context()).
		Where(notSuperseded).
		Find(&rows).Error; err != nil {
		return nil, repoerr.MapError("prediction.latest_all", err)
	}
	out := make(map[uuid.UUID]*types.Prediction, len(rows))
	for _, p := range rows {
		out[p.StudentID] = p
	}
	return out, nil
}

func (r *predictionRepo) DeleteByStudentID(dbc dbctx.Context, studentID uuid.UUID) (int64, error) {
	transaction := dbc.DB(r.db)
	if studentID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Context()).
		Where("student_id = ?", studentID).
		Delete(&types.Prediction{})
	if res.Error != nil {
		return 0, repoerr.MapError("prediction.delete_by_student", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *predictionRepo) ListAll(dbc dbctx.Context, limit int) ([]*types.Prediction, error) {
	transaction := dbc.DB(r.db)
	q := transaction.WithContext(dbc.Context()).Order(newestFirst)
	if limit > 0 {
		q = q.Limit(limit)
	}
	results := []*types.Prediction{}
	if err := q.Find(&results).Error; err != nil {
		return nil, repoerr.MapError("prediction.list_all", err)
	}
	return results, nil
}
