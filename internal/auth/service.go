package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/mail"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/earningbee/bee-engine/internal/metrics"
	"github.com/earningbee/bee-engine/internal/models"
	"github.com/earningbee/bee-engine/internal/storage"
)

var (
	ErrInvalidFaceData = errors.New("face data is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidProfile  = errors.New("invalid profile")
)

const (
	avatarURL     = "https://api.dicebear.com/7.x/avataaars/svg?seed="
	maxNameLength = 100
	maxBioLength  = 500
)

// Service issues and resolves login sessions
type Service struct {
	repo       storage.Repository
	sessionTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewService creates a new auth service
func NewService(repo storage.Repository, sessionTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Login resolves faceData to a user, registering a new one on first sight,
// and opens a session. Face data is an opaque lookup key; nothing is
// verified.
func (s *Service) Login(ctx context.Context, faceData string) (*models.LoginResponse, error) {
	faceData = strings.TrimSpace(faceData)
	if faceData == "" {
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, ErrInvalidFaceData
	}

	user, created, err := s.findOrCreateUser(ctx, faceData)
	if err != nil {
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, err
	}

	token, err := models.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	outcome := "returning"
	if created {
		outcome = "new"
	}
	metrics.Logins.WithLabelValues(outcome).Inc()

	s.logger.Info("user logged in",
		zap.String("user_id", user.ID),
		zap.String("private_key", user.MaskedPrivateKey()),
		zap.Bool("new_user", created),
		zap.Time("expires_at", session.ExpiresAt),
	)

	return &models.LoginResponse{
		PrivateKey: user.PrivateKey,
		Token:      session.Token,
		ExpiresAt:  session.ExpiresAt,
		User:       user,
		NewUser:    created,
	}, nil
}

func (s *Service) findOrCreateUser(ctx context.Context, faceData string) (*models.User, bool, error) {
	user, err := s.repo.GetUserByFaceKey(ctx, faceData)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	privateKey, err := models.GeneratePrivateKey()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate private key: %w", err)
	}

	now := s.now().UTC()
	user = &models.User{
		ID:          uuid.New().String(),
		FaceKey:     faceData,
		PrivateKey:  privateKey,
		FaceScanned: true,
		Profile:     models.Profile{JoinedDate: now},
		CreatedAt:   now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		// A concurrent login may have registered the same face first
		if existing, lookupErr := s.repo.GetUserByFaceKey(ctx, faceData); lookupErr == nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	return user, true, nil
}

// Authenticate resolves a bearer token to its session and user. Expired
// sessions are removed on sight.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error) {
	if token == "" {
		return nil, nil, ErrSessionNotFound
	}

	session, err := s.repo.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	if !s.now().Before(session.ExpiresAt) {
		if err := s.repo.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to delete expired session", zap.String("session_id", session.ID), zap.Error(err))
		}
		return nil, nil, ErrSessionExpired
	}

	user, err := s.repo.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, session, nil
}

// Logout ends the session identified by token
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.repo.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	if err := s.repo.DeleteSession(ctx, session.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Info("user logged out", zap.String("user_id", session.UserID))
	return nil
}

// UpdateProfile applies the non-nil fields of req
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) > maxNameLength {
			return nil, fmt.Errorf("%w: name longer than %d characters", ErrInvalidProfile, maxNameLength)
		}
		user.Profile.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				return nil, fmt.Errorf("%w: malformed email", ErrInvalidProfile)
			}
		}
		user.Profile.Email = email
	}
	if req.Bio != nil {
		if len(*req.Bio) > maxBioLength {
			return nil, fmt.Errorf("%w: bio longer than %d characters", ErrInvalidProfile, maxBioLength)
		}
		user.Profile.Bio = *req.Bio
	}
	if req.ProfileImage != nil {
		user.Profile.ProfileImage = strings.TrimSpace(*req.ProfileImage)
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// RegenerateAvatar assigns a new generated avatar with a random seed
func (s *Service) RegenerateAvatar(ctx context.Context, userID string) (*models.User, error) {
	image := avatarURL + s.avatarSeed()
	return s.UpdateProfile(ctx, userID, models.UpdateProfileRequest{ProfileImage: &image})
}

func (s *Service) avatarSeed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seed := strconv.FormatUint(s.rnd.Uint64(), 36)
	if len(seed) > 13 {
		seed = seed[:13]
	}
	return seed
}
