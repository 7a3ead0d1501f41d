package recommend

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/earningbee/bee-engine/internal/cache"
	"github.com/earningbee/bee-engine/internal/catalog"
	"github.com/earningbee/bee-engine/internal/metrics"
	"github.com/earningbee/bee-engine/internal/models"
)

// ErrMethodNotFound is returned when a method id is not in the catalog
var ErrMethodNotFound = errors.New("earning method not found")

// CatalogSource supplies the active catalog
type CatalogSource interface {
	Current() (*catalog.Catalog, error)
}

// Engine serves recommendation requests against the current catalog,
// memoizing result sets in a cache.
type Engine struct {
	catalogs CatalogSource
	cache    cache.Cache
	logger   *zap.Logger
}

// NewEngine creates a new recommendation engine
func NewEngine(catalogs CatalogSource, c cache.Cache, logger *zap.Logger) *Engine {
	if c == nil {
		c = cache.Noop{}
	}
	return &Engine{
		catalogs: catalogs,
		cache:    c,
		logger:   logger,
	}
}

// Recommend returns the ranked matches for q, re-sorted by sortBy when set
func (e *Engine) Recommend(ctx context.Context, q models.UserQuery, sortBy models.SortKey) (*models.RecommendResponse, error) {
	if sortBy == "" {
		sortBy = models.SortByMatch
	}
	if !sortBy.Valid() {
		metrics.RecommendationRequests.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: unknown sort key %q", ErrInvalidQuery, sortBy)
	}
	if err := ValidateQuery(q); err != nil {
		metrics.RecommendationRequests.WithLabelValues("invalid").Inc()
		return nil, err
	}

	cat, err := e.catalogs.Current()
	if err != nil {
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	results, err := e.rank(ctx, cat, q)
	if err != nil {
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	results, err = SortResults(results, sortBy)
	if err != nil {
		return nil, err
	}

	outcome := "ok"
	if len(results) == 0 {
		outcome = "empty"
	}
	metrics.RecommendationRequests.WithLabelValues(outcome).Inc()
	metrics.RecommendationResults.Observe(float64(len(results)))

	e.logger.Debug("recommendations computed",
		zap.Int("investment", q.Investment),
		zap.Int("monthly_goal", q.MonthlyGoal),
		zap.String("preference", string(q.Preference)),
		zap.String("sort", string(sortBy)),
		zap.Int("results", len(results)),
	)

	return &models.RecommendResponse{
		Query:   q,
		SortBy:  sortBy,
		Results: results,
		Total:   len(results),
	}, nil
}

// rank returns the default-ordered result set, from cache when possible.
// Cache failures are logged and the set is recomputed.
func (e *Engine) rank(ctx context.Context, cat *catalog.Catalog, q models.UserQuery) ([]models.MatchResult, error) {
	key := cache.Key(cat.Version(), q)

	entries, ok, err := e.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		e.logger.Warn("recommendation cache read failed", zap.String("key", key), zap.Error(err))
	case ok:
		if results, resolved := resolve(cat, entries); resolved {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return results, nil
		}
		e.logger.Warn("stale recommendation cache entry", zap.String("key", key))
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	results, err := Recommend(cat, q)
	if err != nil {
		return nil, err
	}

	if err := e.cache.Set(ctx, key, cache.Entries(results)); err != nil {
		e.logger.Warn("recommendation cache write failed", zap.String("key", key), zap.Error(err))
	}
	return results, nil
}

// resolve maps cached ids back to catalog entries
func resolve(cat *catalog.Catalog, entries []cache.Entry) ([]models.MatchResult, bool) {
	results := make([]models.MatchResult, 0, len(entries))
	for _, entry := range entries {
		m := cat.Get(entry.MethodID)
		if m == nil {
			return nil, false
		}
		results = append(results, models.MatchResult{Method: m, MatchScore: entry.MatchScore})
	}
	return results, true
}

// ScoreMethod scores a single catalog entry for q without ranking. Eligible
// reports whether the entry would survive the filter.
func (e *Engine) ScoreMethod(id string, q models.UserQuery) (*models.ScoreResponse, error) {
	if err := ValidateQuery(q); err != nil {
		return nil, err
	}

	cat, err := e.catalogs.Current()
	if err != nil {
		return nil, err
	}

	m := cat.Get(id)
	if m == nil {
		return nil, ErrMethodNotFound
	}

	return &models.ScoreResponse{
		MethodID:   m.ID,
		MatchScore: Score(m, q),
		Eligible:   Eligible(m, q),
	}, nil
}

// Methods lists the catalog, optionally restricted to one category
func (e *Engine) Methods(category models.Category) ([]*models.EarningMethod, error) {
	cat, err := e.catalogs.Current()
	if err != nil {
		return nil, err
	}
	if category == "" {
		return cat.Methods(), nil
	}
	return cat.ByCategory(category), nil
}

// Method returns one catalog entry
func (e *Engine) Method(id string) (*models.EarningMethod, error) {
	cat, err := e.catalogs.Current()
	if err != nil {
		return nil, err
	}
	m := cat.Get(id)
	if m == nil {
		return nil, ErrMethodNotFound
	}
	return m, nil
}
