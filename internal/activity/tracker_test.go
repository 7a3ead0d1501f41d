package activity

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/earningbee/bee-engine/internal/storage"
)

func newTracker() *Tracker {
	return NewTracker(storage.NewMemoryRepository(), zap.NewNop())
}

func TestTracker_GetDefaults(t *testing.T) {
	tr := newTracker()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return start }

	a, err := tr.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", a.UserID)
	assert.Zero(t, a.TimeSpent)
	assert.Zero(t, a.SearchCount)
	assert.Zero(t, a.RecommendationsViewed)
	assert.NotNil(t, a.PagesVisited)
	assert.Empty(t, a.PagesVisited)
	assert.Equal(t, start, a.StartTime)
}

func TestTracker_Counters(t *testing.T) {
	tr := newTracker()
	ctx := context.Background()

	_, err := tr.RecordSearch(ctx, "u1")
	require.NoError(t, err)
	_, err = tr.RecordSearch(ctx, "u1")
	require.NoError(t, err)
	_, err = tr.RecordPageVisit(ctx, "u1", "/input")
	require.NoError(t, err)
	_, err = tr.RecordPageVisit(ctx, "u1", "/recommendations")
	require.NoError(t, err)
	_, err = tr.RecordRecommendationView(ctx, "u1")
	require.NoError(t, err)
	_, err = tr.AddTimeSpent(ctx, "u1", 45)
	require.NoError(t, err)
	a, err := tr.AddTimeSpent(ctx, "u1", 15)
	require.NoError(t, err)

	assert.Equal(t, 2, a.SearchCount)
	assert.Equal(t, []string{"/input", "/recommendations"}, a.PagesVisited)
	assert.Equal(t, 1, a.RecommendationsViewed)
	assert.Equal(t, int64(60), a.TimeSpent)

	stored, err := tr.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, a, stored)

	// Other users are unaffected
	other, err := tr.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Zero(t, other.SearchCount)
}

func TestTracker_Validation(t *testing.T) {
	tr := newTracker()
	ctx := context.Background()

	_, err := tr.RecordPageVisit(ctx, "u1", "  ")
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = tr.AddTimeSpent(ctx, "u1", -1)
	assert.ErrorIs(t, err, ErrNegativeSeconds)

	a, err := tr.AddTimeSpent(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Zero(t, a.TimeSpent)
}

func TestTracker_Reset(t *testing.T) {
	tr := newTracker()
	ctx := context.Background()

	_, err := tr.RecordSearch(ctx, "u1")
	require.NoError(t, err)
	_, err = tr.RecordPageVisit(ctx, "u1", "/about")
	require.NoError(t, err)

	later := time.Now().Add(time.Hour).UTC()
	tr.now = func() time.Time { return later }

	a, err := tr.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, a.SearchCount)
	assert.Empty(t, a.PagesVisited)
	assert.Equal(t, later, a.StartTime)

	stored, err := tr.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, stored.SearchCount)
}

func TestTracker_ConcurrentUpdates(t *testing.T) {
	tr := newTracker()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.RecordSearch(ctx, "u1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	a, err := tr.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50, a.SearchCount)
}

func TestTracker_ManyUsersShareBoundedLocks(t *testing.T) {
	tr := newTracker()
	ctx := context.Background()

	const users = 300
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		id := fmt.Sprintf("user-%d", i)
		assert.Equal(t, stripe(id), stripe(id))
		assert.Less(t, stripe(id), lockStripes)

		for j := 0; j < 3; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := tr.RecordSearch(ctx, id)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	assert.Len(t, tr.locks[:], lockStripes)
	for i := 0; i < users; i++ {
		a, err := tr.Get(ctx, fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
		assert.Equal(t, 3, a.SearchCount)
	}
}
