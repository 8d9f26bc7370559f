package domain

import (
	"github.com/yungbote/studentpulse-backend/internal/domain/auth"
	"github.com/yungbote/studentpulse-backend/internal/domain/student"
	"github.com/yungbote/studentpulse-backend/internal/domain/user"
)

const (
	RoleStudent = user.RoleStudent
	RoleAdmin   = user.RoleAdmin
)

type User = user.User
type UserToken = auth.UserToken

type Student = student.Student
type Prediction = student.Prediction

var NewPrediction = student.NewPrediction

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserToken{},
		&Student{},
		&Prediction{},
	}
}
