package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos/auth"
	"github.com/yungbote/studentpulse-backend/internal/data/repos/repoerr"
	"github.com/yungbote/studentpulse-backend/internal/data/repos/student"
	"github.com/yungbote/studentpulse-backend/internal/data/repos/user"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type StudentRepo = student.StudentRepo
type PredictionRepo = student.PredictionRepo

var (
	ErrNotFound = repoerr.ErrNotFound
	ErrConflict = repoerr.ErrConflict
)

func MapError(op string, err error) error { return repoerr.MapError(op, err) }

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return student.NewStudentRepo(db, baseLog)
}
func NewPredictionRepo(db *gorm.DB, baseLog *logger.Logger) PredictionRepo {
	return student.NewPredictionRepo(db, baseLog)
}

// TxRunner is the transaction boundary used by multi-step writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
