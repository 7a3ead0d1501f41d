// Package activity keeps per-user usage counters.
package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/earningbee/bee-engine/internal/models"
	"github.com/earningbee/bee-engine/internal/storage"
)

var (
	ErrInvalidPage     = errors.New("page is required")
	ErrNegativeSeconds = errors.New("time spent must not be negative")
)

// lockStripes bounds the lock table regardless of how many users are seen
const lockStripes = 64

// Tracker updates activity counters through a repository. Updates for the
// same user are serialized so read-modify-write cycles do not interleave;
// users hashing to the same stripe share a lock.
type Tracker struct {
	repo   storage.Repository
	logger *zap.Logger
	now    func() time.Time

	locks [lockStripes]sync.Mutex
}

// NewTracker creates a new activity tracker
func NewTracker(repo storage.Repository, logger *zap.Logger) *Tracker {
	return &Tracker{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the counters for a user, zeroed if nothing was recorded yet
func (t *Tracker) Get(ctx context.Context, userID string) (*models.Activity, error) {
	a, err := t.repo.GetActivity(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return t.fresh(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// RecordSearch counts one submitted recommendation query
func (t *Tracker) RecordSearch(ctx context.Context, userID string) (*models.Activity, error) {
	return t.update(ctx, userID, func(a *models.Activity) {
		a.SearchCount++
	})
}

// RecordPageVisit appends page to the visit history
func (t *Tracker) RecordPageVisit(ctx context.Context, userID, page string) (*models.Activity, error) {
	page = strings.TrimSpace(page)
	if page == "" {
		return nil, ErrInvalidPage
	}
	return t.update(ctx, userID, func(a *models.Activity) {
		a.PagesVisited = append(a.PagesVisited, page)
	})
}

// RecordRecommendationView counts one viewed recommendation
func (t *Tracker) RecordRecommendationView(ctx context.Context, userID string) (*models.Activity, error) {
	return t.update(ctx, userID, func(a *models.Activity) {
		a.RecommendationsViewed++
	})
}

// AddTimeSpent adds seconds to the time counter
func (t *Tracker) AddTimeSpent(ctx context.Context, userID string, seconds int64) (*models.Activity, error) {
	if seconds < 0 {
		return nil, ErrNegativeSeconds
	}
	return t.update(ctx, userID, func(a *models.Activity) {
		a.TimeSpent += seconds
	})
}

// Reset zeroes every counter and restarts the clock
func (t *Tracker) Reset(ctx context.Context, userID string) (*models.Activity, error) {
	unlock := t.lock(userID)
	defer unlock()

	a := t.fresh(userID)
	if err := t.repo.SaveActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to reset activity: %w", err)
	}

	t.logger.Debug("activity reset", zap.String("user_id", userID))
	return a, nil
}

func (t *Tracker) update(ctx context.Context, userID string, apply func(*models.Activity)) (*models.Activity, error) {
	unlock := t.lock(userID)
	defer unlock()

	a, err := t.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	apply(a)

	if err := t.repo.SaveActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save activity: %w", err)
	}
	return a, nil
}

func (t *Tracker) lock(userID string) func() {
	l := &t.locks[stripe(userID)]
	l.Lock()
	return l.Unlock
}

func stripe(userID string) int {
	return int(xxhash.Sum64String(userID) % lockStripes)
}

func (t *Tracker) fresh(userID string) *models.Activity {
	a := models.NewActivity(userID)
	a.StartTime = t.now().UTC()
	return a
}
