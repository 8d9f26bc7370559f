package user

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmails(dbc dbctx.Context, userEmails []string) ([]*types.User, error)
	EmailExists(dbc dbctx.Context, userEmail string) (bool, error)
	List(dbc dbctx.Context, offset, limit int) ([]*types.User, error)
	UpdateName(dbc dbctx.Context, userID uuid.UUID, name string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	transaction := dbc.DB(ur.db)

	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		if u.Role == "" {
			u.Role = types.RoleStudent
		}
	}

	if err := transaction.WithContext(dbc.Context()).Create(&users).Error; err != nil {
		return nil, repoerr.MapError("user.create", err)
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := dbc.DB(ur.db)

	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Context()).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, repoerr.MapError("user.get_by_ids", err)
	}
	return results, nil
}

func (ur *userRepo) GetByEmails(dbc dbctx.Context, userEmails []string) ([]*types.User, error) {
	transaction := dbc.DB(ur.db)

	var results []*types.User
	if len(userEmails) == 0 {
		return results, nil
	}
	normalized := make([]string, 0, len(userEmails))
	for _, e := range userEmails {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(e)))
	}

	if err := transaction.WithContext(dbc.Context()).
		Where("email IN ?", normalized).
		Find(&results).Error; err != nil {
		return nil, repoerr.MapError("user.get_by_emails", err)
	}
	return results, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, userEmail string) (bool, error) {
	transaction := dbc.DB(ur.db)

	var count int64
	if err := transaction.WithContext(dbc.Context()).
		Model(&types.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(userEmail))).
		Count(&count).Error; err != nil {
		return false, repoerr.MapError("user.email_exists", err)
	}
	return count > 0, nil
}

func (ur *userRepo) List(dbc dbctx.Context, offset, limit int) ([]*types.User, error) {
	transaction := dbc.DB(ur.db)

	q := transaction.WithContext(dbc.Context()).Order("created_at ASC").Order("id ASC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*types.User
	if err := q.Find(&results).Error; err != nil {
		return nil, repoerr.MapError("user.list", err)
	}
	return results, nil
}

func (ur *userRepo) UpdateName(dbc dbctx.Context, userID uuid.UUID, name string) error {
	transaction := dbc.DB(ur.db)
	return repoerr.MapError("user.update_name", transaction.WithContext(dbc.Context()).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("name", name).Error)
}
