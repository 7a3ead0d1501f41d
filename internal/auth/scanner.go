// Package auth implements simulated face-scan login and bearer sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// ErrScanFailed is returned when a scan completes without a usable capture
var ErrScanFailed = errors.New("face scan failed")

const (
	defaultSuccessRate = 0.9
	defaultScanTick    = 100 * time.Millisecond
)

// ScanResult is a completed scan
type ScanResult struct {
	FaceData string `json:"faceData"`
	Steps    int    `json:"steps"`
}

// BiometricProvider produces face data for login. Implementations must
// return promptly once ctx is cancelled.
type BiometricProvider interface {
	Scan(ctx context.Context) (*ScanResult, error)
}

// SimulatedScanner fakes a camera scan: progress advances by a random
// 5 to 20 points per tick until it reaches 100, then the capture succeeds
// with the configured probability.
type SimulatedScanner struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	successRate float64
	tick        time.Duration
	now         func() time.Time
}

// ScannerOption configures a SimulatedScanner
type ScannerOption func(*SimulatedScanner)

// WithRand sets the random source
func WithRand(r *rand.Rand) ScannerOption {
	return func(s *SimulatedScanner) { s.rnd = r }
}

// WithSuccessRate sets the probability that a finished scan succeeds
func WithSuccessRate(p float64) ScannerOption {
	return func(s *SimulatedScanner) { s.successRate = p }
}

// WithTick sets the delay between progress steps. Zero disables waiting.
func WithTick(d time.Duration) ScannerOption {
	return func(s *SimulatedScanner) { s.tick = d }
}

// WithClock sets the clock used for the face data timestamp
func WithClock(now func() time.Time) ScannerOption {
	return func(s *SimulatedScanner) { s.now = now }
}

// NewSimulatedScanner creates a scanner with a 90% success rate
func NewSimulatedScanner(opts ...ScannerOption) *SimulatedScanner {
	s := &SimulatedScanner{
		successRate: defaultSuccessRate,
		tick:        defaultScanTick,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Scan runs one simulated capture
func (s *SimulatedScanner) Scan(ctx context.Context) (*ScanResult, error) {
	var progress float64
	steps := 0

	for progress < 100 {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		progress += s.float64()*15 + 5
		steps++
	}

	if s.float64() >= s.successRate {
		return nil, fmt.Errorf("%w after %d steps", ErrScanFailed, steps)
	}

	return &ScanResult{FaceData: s.faceData(), Steps: steps}, nil
}

func (s *SimulatedScanner) wait(ctx context.Context) error {
	if s.tick <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.tick)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// faceData renders face_<unix millis>_<random base36>
func (s *SimulatedScanner) faceData() string {
	s.mu.Lock()
	suffix := strconv.FormatUint(s.rnd.Uint64(), 36)
	s.mu.Unlock()
	return fmt.Sprintf("face_%d_%s", s.now().UnixMilli(), suffix)
}

func (s *SimulatedScanner) float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}
