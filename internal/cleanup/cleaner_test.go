package cleanup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/earningbee/bee-engine/internal/models"
	"github.com/earningbee/bee-engine/internal/storage"
)

type countingStore struct {
	calls atomic.Int32
	err   error
}

func (s *countingStore) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	s.calls.Add(1)
	return 0, s.err
}

func TestCleaner_Sweep(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.CreateSession(ctx, &models.Session{ID: "old", Token: "t1", ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, repo.CreateSession(ctx, &models.Session{ID: "new", Token: "t2", ExpiresAt: now.Add(time.Hour)}))

	c := NewCleaner(repo, time.Minute, zap.NewNop())
	c.now = func() time.Time { return now }

	assert.Equal(t, int64(1), c.Sweep(ctx))
	assert.Equal(t, int64(0), c.Sweep(ctx))

	_, err := repo.GetSessionByToken(ctx, "t2")
	assert.NoError(t, err)
}

func TestCleaner_SweepError(t *testing.T) {
	store := &countingStore{err: errors.New("db down")}
	c := NewCleaner(store, time.Minute, zap.NewNop())

	assert.Equal(t, int64(0), c.Sweep(context.Background()))
}

func TestCleaner_StartRunsUntilCancelled(t *testing.T) {
	store := &countingStore{}
	c := NewCleaner(store, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	assert.Eventually(t, func() bool { return store.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
}

func TestNewCleaner_DefaultInterval(t *testing.T) {
	c := NewCleaner(&countingStore{}, 0, zap.NewNop())
	assert.Equal(t, 5*time.Minute, c.interval)
}
