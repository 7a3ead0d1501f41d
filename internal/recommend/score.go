package recommend

import (
	"math"

	"github.com/earningbee/bee-engine/internal/models"
)

const (
	investmentWeight = 0.3
	earningWeight    = 0.5
	preferenceBonus  = 20.0

	maxScore = 100.0
)

// Score computes the match score of m for q, clamped to [0, 100]. It does
// not check eligibility; callers score survivors of the filter. q must be
// valid (positive goal, non-negative investment).
func Score(m *models.EarningMethod, q models.UserQuery) float64 {
	score := investmentFit(m, q)*investmentWeight + earningFit(m, q)*earningWeight
	if q.Preference.Accepts(m.Category) {
		score += preferenceBonus
	}
	return clamp(score, 0, maxScore)
}

// investmentFit is 100 minus the relative distance between the method's
// entry cost and the user's capital, floored at 0. With no capital the fit
// is all-or-nothing on whether the method is free to start.
func investmentFit(m *models.EarningMethod, q models.UserQuery) float64 {
	if q.Investment == 0 {
		if m.MinInvestment == 0 {
			return maxScore
		}
		return 0
	}
	diff := math.Abs(float64(m.MinInvestment - q.Investment))
	return math.Max(0, maxScore-diff/float64(q.Investment)*100)
}

// earningFit is the share of the goal covered by the method's best case,
// capped at 100.
func earningFit(m *models.EarningMethod, q models.UserQuery) float64 {
	return math.Min(maxScore, float64(m.MaxEarning)/float64(q.MonthlyGoal)*100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
