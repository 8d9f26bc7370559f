package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

type Repos struct {
	Tx         repos.TxRunner
	User       repos.UserRepo
	UserToken  repos.UserTokenRepo
	Student    repos.StudentRepo
	Prediction repos.PredictionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tx:         repos.NewGormTxRunner(db),
		User:       repos.NewUserRepo(db, log),
		UserToken:  repos.NewUserTokenRepo(db, log),
		Student:    repos.NewStudentRepo(db, log),
		Prediction: repos.NewPredictionRepo(db, log),
	}
}
