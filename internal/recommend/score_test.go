package recommend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/earningbee/bee-engine/internal/models"
)

func TestScore_PerfectMatch(t *testing.T) {
	m := method("1", models.CategoryOnline, 100, 1000, 5000)
	q := query(100, 1000, models.PreferenceOnline)

	assert.Equal(t, 100.0, investmentFit(&m, q))
	assert.Equal(t, 100.0, earningFit(&m, q))
	assert.Equal(t, 100.0, Score(&m, q))
}

func TestScore_Components(t *testing.T) {
	tests := []struct {
		name string
		m    models.EarningMethod
		q    models.UserQuery
		want float64
	}{
		{
			name: "half goal coverage",
			m:    method("1", models.CategoryOnline, 100, 1000, 500),
			q:    query(100, 1000, models.PreferenceOnline),
			want: 30 + 25 + 20,
		},
		{
			name: "entry cost far above capital floors at zero",
			m:    method("1", models.CategoryOnline, 1000, 5000, 5000),
			q:    query(100, 1000, models.PreferenceOnline),
			want: 0 + 50 + 20,
		},
		{
			name: "entry cost 50% off capital",
			m:    method("1", models.CategoryOnline, 50, 500, 2000),
			q:    query(100, 1000, models.PreferenceBoth),
			want: 15 + 50 + 20,
		},
		{
			name: "no bonus on category mismatch",
			m:    method("1", models.CategoryOffline, 100, 1000, 5000),
			q:    query(100, 1000, models.PreferenceOnline),
			want: 30 + 50,
		},
		{
			name: "zero investment and free method",
			m:    method("1", models.CategoryOnline, 0, 200, 5000),
			q:    query(0, 1000, models.PreferenceBoth),
			want: 30 + 50 + 20,
		},
		{
			name: "zero investment and paid method",
			m:    method("1", models.CategoryOnline, 50, 500, 5000),
			q:    query(0, 1000, models.PreferenceBoth),
			want: 0 + 50 + 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(&tt.m, tt.q), 1e-9)
		})
	}
}

func TestInvestmentFit_ZeroInvestmentIsNotNaN(t *testing.T) {
	free := method("1", models.CategoryOnline, 0, 0, 100)
	fit := investmentFit(&free, query(0, 100, models.PreferenceBoth))

	assert.False(t, math.IsNaN(fit))
	assert.Equal(t, 100.0, fit)
}

func TestScore_Deterministic(t *testing.T) {
	m := method("1", models.CategoryOffline, 150, 1500, 7000)
	q := query(400, 2500, models.PreferenceBoth)

	first := Score(&m, q)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Score(&m, q))
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-3, 0, 100))
	assert.Equal(t, 100.0, clamp(130, 0, 100))
	assert.Equal(t, 42.0, clamp(42, 0, 100))
}
