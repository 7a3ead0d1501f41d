package recommend

import (
	"fmt"
	"sort"

	"github.com/earningbee/bee-engine/internal/catalog"
	"github.com/earningbee/bee-engine/internal/models"
)

// MaxResults bounds every recommendation result set
const MaxResults = 6

// Recommend filters cat for q, orders survivors by how close their best
// monthly earning is to the goal (catalog order on ties), keeps the first
// MaxResults and scores them. An empty result is not an error.
func Recommend(cat *catalog.Catalog, q models.UserQuery) ([]models.MatchResult, error) {
	if cat == nil {
		return nil, catalog.ErrNotLoaded
	}
	if err := ValidateQuery(q); err != nil {
		return nil, err
	}

	survivors := Survivors(cat, q)

	sort.SliceStable(survivors, func(i, j int) bool {
		return goalDistance(survivors[i], q) < goalDistance(survivors[j], q)
	})

	if len(survivors) > MaxResults {
		survivors = survivors[:MaxResults]
	}

	results := make([]models.MatchResult, len(survivors))
	for i, m := range survivors {
		results[i] = models.MatchResult{Method: m, MatchScore: Score(m, q)}
	}
	return results, nil
}

// Survivors returns every entry that passes the filter, in catalog order
func Survivors(cat *catalog.Catalog, q models.UserQuery) []*models.EarningMethod {
	var out []*models.EarningMethod
	for _, m := range cat.Methods() {
		if Eligible(m, q) {
			out = append(out, m)
		}
	}
	return out
}

func goalDistance(m *models.EarningMethod, q models.UserQuery) int64 {
	d := int64(m.MaxEarning) - int64(q.MonthlyGoal)
	if d < 0 {
		return -d
	}
	return d
}

// SortResults reorders results for display. Scores are untouched and every
// ordering is stable, so equal keys keep their current relative order.
// SortByMatch (or an empty key) leaves the order as is.
func SortResults(results []models.MatchResult, key models.SortKey) ([]models.MatchResult, error) {
	sorted := make([]models.MatchResult, len(results))
	copy(sorted, results)

	var less func(a, b *models.EarningMethod) bool
	switch key {
	case "", models.SortByMatch:
		return sorted, nil
	case models.SortByEarning:
		less = func(a, b *models.EarningMethod) bool { return a.MaxEarning > b.MaxEarning }
	case models.SortByInvestment:
		less = func(a, b *models.EarningMethod) bool { return a.MinInvestment < b.MinInvestment }
	case models.SortByDifficulty:
		less = func(a, b *models.EarningMethod) bool { return a.Difficulty.Rank() < b.Difficulty.Rank() }
	default:
		return nil, fmt.Errorf("%w: unknown sort key %q", ErrInvalidQuery, key)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i].Method, sorted[j].Method)
	})
	return sorted, nil
}
