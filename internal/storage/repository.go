package storage

import (
	"context"
	"errors"
	"time"

	"github.com/earningbee/bee-engine/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Repository defines the interface for user and session persistence
type Repository interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByFaceKey(ctx context.Context, faceKey string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	// Sessions
	CreateSession(ctx context.Context, s *models.Session) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Activity
	GetActivity(ctx context.Context, userID string) (*models.Activity, error)
	SaveActivity(ctx context.Context, a *models.Activity) error

	// Saved input and theme
	GetSavedInput(ctx context.Context, userID string) (*models.UserQuery, error)
	SaveInput(ctx context.Context, userID string, q models.UserQuery) error
	GetTheme(ctx context.Context, userID string) (models.ThemeMode, error)
	SaveTheme(ctx context.Context, userID string, mode models.ThemeMode) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
