// Package cache stores computed recommendation result sets keyed by
// catalog version and query.
package cache

import (
	"context"
	"fmt"

	"github.com/earningbee/bee-engine/internal/models"
)

// Entry is the cached form of a MatchResult. Only the method id is kept;
// readers resolve it back to the shared catalog entry.
type Entry struct {
	MethodID   string  `json:"id"`
	MatchScore float64 `json:"score"`
}

// Cache defines the interface for recommendation result caching
type Cache interface {
	// Get returns the cached entries and whether the key was present
	Get(ctx context.Context, key string) ([]Entry, bool, error)
	Set(ctx context.Context, key string, entries []Entry) error
	Ping(ctx context.Context) error
	Close() error
}

// Key builds the cache key for a query against a catalog version
func Key(catalogVersion string, q models.UserQuery) string {
	return fmt.Sprintf("rec:%s:%d:%d:%s", catalogVersion, q.Investment, q.MonthlyGoal, q.Preference)
}

// Entries converts results into their cached form
func Entries(results []models.MatchResult) []Entry {
	out := make([]Entry, len(results))
	for i, r := range results {
		out[i] = Entry{MethodID: r.Method.ID, MatchScore: r.MatchScore}
	}
	return out
}

// Noop is a Cache that never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) ([]Entry, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []Entry) error         { return nil }
func (Noop) Ping(context.Context) error                         { return nil }
func (Noop) Close() error                                       { return nil }
