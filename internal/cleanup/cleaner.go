package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/earningbee/bee-engine/internal/metrics"
)

// SessionStore is the part of the repository the cleaner needs
type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Cleaner periodically removes expired login sessions
type Cleaner struct {
	store    SessionStore
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewCleaner creates a new cleanup worker
func NewCleaner(store SessionStore, interval time.Duration, logger *zap.Logger) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	c.logger.Info("cleanup worker started", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep runs one cleanup cycle and returns how many sessions were removed
func (c *Cleaner) Sweep(ctx context.Context) int64 {
	n, err := c.store.DeleteExpiredSessions(ctx, c.now())
	if err != nil {
		c.logger.Error("failed to delete expired sessions", zap.Error(err))
		return 0
	}

	if n > 0 {
		metrics.SessionsExpired.Add(float64(n))
		c.logger.Info("expired sessions deleted", zap.Int64("count", n))
	} else {
		c.logger.Debug("no expired sessions found")
	}
	return n
}
