package auth

import (
	"context"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var faceDataPattern = regexp.MustCompile(`^face_1700000000000_[0-9a-z]+$`)

func fixedClock() time.Time {
	return time.UnixMilli(1700000000000)
}

func TestSimulatedScanner_Success(t *testing.T) {
	s := NewSimulatedScanner(
		WithRand(rand.New(rand.NewSource(1))),
		WithSuccessRate(1),
		WithTick(0),
		WithClock(fixedClock),
	)

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, faceDataPattern, res.FaceData)

	// Each step adds between 5 and 20 points
	assert.GreaterOrEqual(t, res.Steps, 5)
	assert.LessOrEqual(t, res.Steps, 20)
}

func TestSimulatedScanner_Failure(t *testing.T) {
	s := NewSimulatedScanner(WithSuccessRate(0), WithTick(0))

	_, err := s.Scan(context.Background())
	assert.ErrorIs(t, err, ErrScanFailed)
}

func TestSimulatedScanner_SuccessRate(t *testing.T) {
	s := NewSimulatedScanner(WithRand(rand.New(rand.NewSource(7))), WithTick(0))

	ok := 0
	const runs = 2000
	for i := 0; i < runs; i++ {
		if _, err := s.Scan(context.Background()); err == nil {
			ok++
		}
	}
	assert.InDelta(t, 0.9, float64(ok)/runs, 0.03)
}

func TestSimulatedScanner_Cancelled(t *testing.T) {
	s := NewSimulatedScanner(WithTick(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatedScanner_DistinctFaceData(t *testing.T) {
	s := NewSimulatedScanner(WithSuccessRate(1), WithTick(0), WithClock(fixedClock))

	a, err := s.Scan(context.Background())
	require.NoError(t, err)
	b, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.FaceData, b.FaceData)
}
