package api

import (
	"context"

	"github.com/earningbee/bee-engine/internal/models"
)

type contextKey string

const (
	userContextKey    contextKey = "user"
	sessionContextKey contextKey = "session"
)

// UserFromContext extracts the authenticated user from context
func UserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// SessionFromContext extracts the current session from context
func SessionFromContext(ctx context.Context) *models.Session {
	session, ok := ctx.Value(sessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// ContextWithSession adds the user and session to context
func ContextWithSession(ctx context.Context, user *models.User, session *models.Session) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, sessionContextKey, session)
}
