package auth

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, userTokens []*types.UserToken) ([]*types.UserToken, error)
	GetByIDs(dbc dbctx.Context, tokenIDs []uuid.UUID) ([]*types.UserToken, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserToken, error)
	GetByRefreshTokens(dbc dbctx.Context, refreshTokens []string) ([]*types.UserToken, error)
	UpdateAccessToken(dbc dbctx.Context, tokenID uuid.UUID, accessToken string) error
	FullDeleteByIDs(dbc dbctx.Context, tokenIDs []uuid.UUID) error
	FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	repoLog := baseLog.With("repo", "UserTokenRepo")
	return &userTokenRepo{db: db, log: repoLog}
}

func (utr *userTokenRepo) Create(dbc dbctx.Context, userTokens []*types.UserToken) ([]*types.UserToken, error) {
	transaction := dbc.DB(utr.db)

	if len(userTokens) == 0 {
		return []*types.UserToken{}, nil
	}
	for _, t := range userTokens {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
	}

	if err := transaction.WithContext(dbc.Context()).Omit("User").Create(&userTokens).Error; err != nil {
		return nil, repoerr.MapError("user_token.create", err)
	}

	return userTokens, nil
}

func (utr *userTokenRepo) GetByIDs(dbc dbctx.Context, tokenIDs []uuid.UUID) ([]*types.UserToken, error) {
	transaction := dbc.DB(utr.db)

	var results []*types.UserToken

	if len(tokenIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Context()).
		Where("id IN ?", tokenIDs).
		Find(&results).Error; err != nil {
		return nil, repoerr.MapError("user_token.get_by_ids", err)
	}

	return results, nil
}

func (utr *userTokenRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserToken, error) {
	transaction := dbc.DB(utr.db)

	var results []*types.UserToken

	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Context()).
		Where("user_id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, repoerr.MapError("user_token.get_by_user_ids", err)
	}

	return results, nil
}

func (utr *userTokenRepo) GetByRefreshTokens(dbc dbctx.Context, refreshTokens []string) ([]*types.UserToken, error) {
	transaction := dbc.DB(utr.db)

	var results []*types.UserToken

	if len(refreshTokens) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Context()).
		Where("refresh_token IN ?", refreshTokens).
		Find(&results).Error; err != nil {
		return nil, repoerr.MapError("user_token.get_by_refresh_tokens", err)
	}

	return results, nil
}

func (utr *userTokenRepo) UpdateAccessToken(dbc dbctx.Context, tokenID uuid.UUID, accessToken string) error {
	transaction := dbc.DB(utr.db)

	if tokenID == uuid.Nil {
		return nil
	}

	return repoerr.MapError("user_token.update_access_token", transaction.WithContext(dbc.Context()).
		Model(&types.UserToken{}).
		Where("id = ?", tokenID).
		Update("access_token", accessToken).Error)
}

func (utr *userTokenRepo) FullDeleteByIDs(dbc dbctx.Context, tokenIDs []uuid.UUID) error {
	transaction := dbc.DB(utr.db)

	if len(tokenIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Context()).
		Unscoped().
		Where("id IN (?)", tokenIDs).
		Delete(&types.UserToken{}).Error; err != nil {
		return repoerr.MapError("user_token.delete_by_ids", err)
	}

	return nil
}

func (utr *userTokenRepo) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
	transaction := dbc.DB(utr.db)

	if len(userIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Context()).
		Unscoped().
		Where("user_id IN (?)", userIDs).
		Delete(&types.UserToken{}).Error; err != nil {
		return repoerr.MapError("user_token.delete_by_user_ids", err)
	}

	return nil
}
