package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ContextKeyUserID   contextKey = "user_id"
	ContextKeyNickname contextKey = "nickname"
)

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return v, ok
}

func NicknameFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyNickname).(string)
	return v, ok
}
