package student

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

type StudentRepo interface {
	Create(dbc dbctx.Context, s *types.Student) error
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Student, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Student, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.Student, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Student, error)
	List(dbc dbctx.Context, offset, limit int) ([]*types.Student, error)
	ListWithoutPrediction(dbc dbctx.Context) ([]*types.Student, error)
	Count(dbc dbctx.Context) (int64, error)
	Update(dbc dbctx.Context, s *types.Student) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type studentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	repoLog := baseLog.With("repo", "StudentRepo")
	return &studentRepo{db: db, log: repoLog}
}

func (r *studentRepo) Create(dbc dbctx.Context, s *types.Student) error {
	transaction := dbc.DB(r.db)
	if s == nil {
		return nil
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Email = normalizeEmail(s.Email)
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if err := transaction.WithContext(dbc.Context()).Create(s).Error; err != nil {
		return repoerr.MapError("student.create", err)
	}
	return nil
}

func (r *studentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Student, error) {
	transaction := dbc.DB(r.db)
	var results []*types.Student
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Context()).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, repoerr.MapError("student.get_by_ids", err)
	}
	return results, nil
}

// GetByID returns nil, nil when the student does not exist.
func (r *studentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Student, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *studentRepo) GetByEmail(dbc dbctx.Context, email string) (*types.Student, error) {
	transaction := dbc.DB(r.db)
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	var row types.Student
	if err := transaction.WithContext(dbc.Context()).
		Where("lower(email) = ?", email).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, repoerr.MapError("student.get_by_email", err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *studentRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Student, error) {
	transaction := dbc.DB(r.db)
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.Student
	if err := transaction.WithContext(dbc.Context()).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, repoerr.MapError("student.get_by_user_id", err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// List pages through students oldest first. A non-positive limit returns
// every row from offset on.
func (r *studentRepo) List(dbc dbctx.Context, offset, limit int) ([]*types.Student, error) {
	transaction := dbc.DB(r.db)
	q := transaction.WithContext(dbc.Context()).
		Order("created_at ASC").
		Order("id ASC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*types.Student
	if err := q.Find(&results).Error; err != nil {
		return nil, repoerr.MapError("student.list", err)
	}
	return results, nil
}

func (r *studentRepo) ListWithoutPrediction(dbc dbctx.Context) ([]*types.Student, error) {
	transaction := dbc.DB(r.db)
	var results []*types.Student
	if err := transaction.WithContext(dbc.Context()).
		Where("NOT EXISTS (SELECT 1 FROM prediction p WHERE p.student_id = student.id)").
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, repoerr.MapError("student.list_without_prediction", err)
	}
	return results, nil
}

func (r *studentRepo) Count(dbc dbctx.Context) (int64, error) {
	transaction := dbc.DB(r.db)
	var n int64
	if err := transaction.WithContext(dbc.Context()).
		Model(&types.Student{}).
		Count(&n).Error; err != nil {
		return 0, repoerr.MapError("student.count", err)
	}
	return n, nil
}

// Update writes every column of s.
func (r *studentRepo) Update(dbc dbctx.Context, s *types.Student) error {
	transaction := dbc.DB(r.db)
	if s == nil || s.ID == uuid.Nil {
		return nil
	}
	s.Email = normalizeEmail(s.Email)
	s.UpdatedAt = time.Now().UTC()
	if err := transaction.WithContext(dbc.Context()).Save(s).Error; err != nil {
		return repoerr.MapError("student.update", err)
	}
	return nil
}

func (r *studentRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	transaction := dbc.DB(r.db)
	if id == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Context()).
		Where("id = ?", id).
		Delete(&types.Student{})
	if res.Error != nil {
		return 0, repoerr.MapError("student.delete", res.Error)
	}
	return res.RowsAffected, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
