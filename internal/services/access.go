package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/studentpulse-backend/internal/data/repos"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/platform/apierr"
	"github.com/yungbote/studentpulse-backend/internal/platform/ctxutil"
)

const (
	CodeInvalidInput    = "invalid_input"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeStudentNotFound = "student_not_found"
	CodeUserNotFound    = "user_not_found"
	CodeEmailTaken      = "email_taken"
)

var errStudentNotFound = apierr.NotFound(CodeStudentNotFound, errors.New("student not found"))

// canAccessStudent reports whether the caller in ctx may read s. Calls
// without request data come from trusted code paths (CLI, workers).
func canAccessStudent(ctx context.Context, s *types.Student) bool {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.IsAdmin() {
		return true
	}
	if s == nil {
		return false
	}
	if s.UserID != nil && *s.UserID == rd.UserID && rd.UserID != uuid.Nil {
		return true
	}
	return rd.Email != "" && strings.EqualFold(rd.Email, s.Email)
}

func forbidden() error {
	return apierr.Forbidden(CodeForbidden, errors.New("not allowed to access this student"))
}

func requireAuth(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(CodeUnauthorized, errors.New("authentication required"))
	}
	return rd, nil
}

func requireAdmin(ctx context.Context) error {
	rd, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	if !rd.IsAdmin() {
		return apierr.Forbidden(CodeForbidden, errors.New("admin role required"))
	}
	return nil
}

// mapRepoErr lifts repo sentinels into API errors.
func mapRepoErr(err error, conflictCode string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repos.ErrConflict):
		return apierr.Conflict(conflictCode, err)
	case errors.Is(err, repos.ErrNotFound):
		return apierr.NotFound(CodeStudentNotFound, err)
	default:
		return err
	}
}
