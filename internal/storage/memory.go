package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/earningbee/bee-engine/internal/models"
)

// MemoryRepository implements Repository in process memory. It is used when
// no database is configured and in tests. Records are copied on the way in
// and out.
type MemoryRepository struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	faceIndex map[string]string // face key -> user id
	sessions  map[string]*models.Session
	tokens    map[string]string // token -> session id
	activity  map[string]*models.Activity
	inputs    map[string]models.UserQuery
	themes    map[string]models.ThemeMode
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:     make(map[string]*models.User),
		faceIndex: make(map[string]string),
		sessions:  make(map[string]*models.Session),
		tokens:    make(map[string]string),
		activity:  make(map[string]*models.Activity),
		inputs:    make(map[string]models.UserQuery),
		themes:    make(map[string]models.ThemeMode),
	}
}

func (r *MemoryRepository) CreateUser(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[u.ID]; exists {
		return fmt.Errorf("user already exists: %s", u.ID)
	}
	if _, exists := r.faceIndex[u.FaceKey]; exists {
		return fmt.Errorf("face key already registered")
	}

	cp := *u
	r.users[u.ID] = &cp
	r.faceIndex[u.FaceKey] = u.ID
	return nil
}

func (r *MemoryRepository) GetUser(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	cp.Profile.JoinedDate = cp.CreatedAt
	return &cp, nil
}

func (r *MemoryRepository) GetUserByFaceKey(ctx context.Context, faceKey string) (*models.User, error) {
	r.mu.RLock()
	id, ok := r.faceIndex[faceKey]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetUser(ctx, id)
}

func (r *MemoryRepository) UpdateUser(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Profile.Name = u.Profile.Name
	existing.Profile.Email = u.Profile.Email
	existing.Profile.Bio = u.Profile.Bio
	existing.Profile.ProfileImage = u.Profile.ProfileImage
	return nil
}

func (r *MemoryRepository) CreateSession(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[s.Token]; exists {
		return fmt.Errorf("session token already in use")
	}
	cp := *s
	r.sessions[s.ID] = &cp
	r.tokens[s.Token] = s.ID
	return nil
}

func (r *MemoryRepository) GetSessionByToken(_ context.Context, token string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r.sessions[id]
	return &cp, nil
}

func (r *MemoryRepository) DeleteSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.tokens, s.Token)
	delete(r.sessions, id)
	return nil
}

func (r *MemoryRepository) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.tokens, s.Token)
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) GetActivity(_ context.Context, userID string) (*models.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activity[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyActivity(a), nil
}

func (r *MemoryRepository) SaveActivity(_ context.Context, a *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.activity[a.UserID] = copyActivity(a)
	return nil
}

func copyActivity(a *models.Activity) *models.Activity {
	cp := *a
	cp.PagesVisited = append([]string{}, a.PagesVisited...)
	return &cp
}

func (r *MemoryRepository) GetSavedInput(_ context.Context, userID string) (*models.UserQuery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.inputs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (r *MemoryRepository) SaveInput(_ context.Context, userID string, q models.UserQuery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inputs[userID] = q
	return nil
}

func (r *MemoryRepository) GetTheme(_ context.Context, userID string) (models.ThemeMode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mode, ok := r.themes[userID]
	if !ok {
		return "", ErrNotFound
	}
	return mode, nil
}

func (r *MemoryRepository) SaveTheme(_ context.Context, userID string, mode models.ThemeMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.themes[userID] = mode
	return nil
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }
func (r *MemoryRepository) Close() error               { return nil }
