package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// RequestData is the authenticated caller resolved from the bearer token.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	SessionID   uuid.UUID
	Email       string
	Role        string
}

func (rd *RequestData) IsAdmin() bool {
	return rd != nil && rd.Role == RoleAdmin
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
