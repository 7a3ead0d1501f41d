// Package recommend matches earning methods against a user query: it
// filters the catalog, ranks survivors by closeness to the income goal and
// scores each one.
package recommend

import (
	"errors"
	"fmt"

	"github.com/earningbee/bee-engine/internal/models"
)

// The affordability band is [min*0.8, max*1.2] and a method must reach at
// least half the goal. Both are evaluated in integer tenths so the inclusive
// boundaries are exact.
const (
	lowerToleranceTenths = 8
	upperToleranceTenths = 12
	goalCoverageTenths   = 5
)

// ErrInvalidQuery is returned for queries the engine refuses to evaluate
var ErrInvalidQuery = errors.New("invalid query")

// ValidateQuery rejects queries with a non-positive goal, a negative
// investment or an unknown preference.
func ValidateQuery(q models.UserQuery) error {
	if q.MonthlyGoal <= 0 {
		return fmt.Errorf("%w: monthlyGoal must be positive, got %d", ErrInvalidQuery, q.MonthlyGoal)
	}
	if q.Investment < 0 {
		return fmt.Errorf("%w: investment must not be negative, got %d", ErrInvalidQuery, q.Investment)
	}
	if !q.Preference.Valid() {
		return fmt.Errorf("%w: unknown preference %q", ErrInvalidQuery, q.Preference)
	}
	return nil
}

// Eligible reports whether m passes every filtering rule for q. q must
// already be valid.
func Eligible(m *models.EarningMethod, q models.UserQuery) bool {
	return matchesPreference(m, q) && affordable(m, q) && reachesGoal(m, q)
}

func matchesPreference(m *models.EarningMethod, q models.UserQuery) bool {
	return q.Preference.Accepts(m.Category)
}

// affordable checks the inclusive band [min*0.8, max*1.2]
func affordable(m *models.EarningMethod, q models.UserQuery) bool {
	investment := int64(q.Investment) * 10
	return investment >= int64(m.MinInvestment)*lowerToleranceTenths &&
		investment <= int64(m.MaxInvestment)*upperToleranceTenths
}

func reachesGoal(m *models.EarningMethod, q models.UserQuery) bool {
	return int64(m.MaxEarning)*10 >= int64(q.MonthlyGoal)*goalCoverageTenths
}
