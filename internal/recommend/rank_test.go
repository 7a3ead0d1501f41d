package recommend

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earningbee/bee-engine/internal/catalog"
	"github.com/earningbee/bee-engine/internal/models"
)

func mustCatalog(t *testing.T, methods ...models.EarningMethod) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(methods)
	require.NoError(t, err)
	return cat
}

func ids(results []models.MatchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Method.ID
	}
	return out
}

func TestRecommend_ScenarioA(t *testing.T) {
	cat := mustCatalog(t, method("1", models.CategoryOnline, 100, 1000, 5000))

	results, err := Recommend(cat, query(100, 1000, models.PreferenceOnline))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].Method.ID)
	assert.Equal(t, 100.0, results[0].MatchScore)
}

func TestRecommend_ScenarioB(t *testing.T) {
	cat := mustCatalog(t, method("1", models.CategoryOnline, 100, 1000, 5000))

	results, err := Recommend(cat, query(100, 1000, models.PreferenceOffline))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecommend_ScenarioC(t *testing.T) {
	cat := mustCatalog(t, method("1", models.CategoryOnline, 100, 1000, 5000))

	results, err := Recommend(cat, query(100, -5, models.PreferenceOnline))
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.Nil(t, results)
}

func TestRecommend_ScenarioD(t *testing.T) {
	earnings := []int{3000, 550, 1250, 1000, 2000, 820, 1400, 1030, 700, 950}
	methods := make([]models.EarningMethod, len(earnings))
	for i, e := range earnings {
		methods[i] = method(fmt.Sprintf("m%d", e), models.CategoryOnline, 0, 1000, e)
	}
	cat := mustCatalog(t, methods...)

	results, err := Recommend(cat, query(100, 1000, models.PreferenceBoth))
	require.NoError(t, err)
	assert.Equal(t, []string{"m1000", "m1030", "m950", "m820", "m1250", "m700"}, ids(results))
}

func TestRecommend_TieKeepsCatalogOrder(t *testing.T) {
	cat := mustCatalog(t,
		method("far", models.CategoryOnline, 0, 1000, 4000),
		method("above", models.CategoryOnline, 0, 1000, 1100),
		method("below", models.CategoryOnline, 0, 1000, 900),
		method("exact", models.CategoryOnline, 0, 1000, 1000),
	)

	results, err := Recommend(cat, query(100, 1000, models.PreferenceBoth))
	require.NoError(t, err)
	assert.Equal(t, []string{"exact", "above", "below", "far"}, ids(results))
}

func TestRecommend_SharesCatalogEntries(t *testing.T) {
	cat := mustCatalog(t, method("1", models.CategoryOnline, 100, 1000, 5000))

	results, err := Recommend(cat, query(100, 1000, models.PreferenceOnline))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Same(t, cat.Get("1"), results[0].Method)
}

func TestRecommend_NilCatalog(t *testing.T) {
	_, err := Recommend(nil, query(100, 1000, models.PreferenceBoth))
	assert.ErrorIs(t, err, catalog.ErrNotLoaded)
}

func TestRecommend_DefaultCatalog(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	results, err := Recommend(cat, query(500, 5000, models.PreferenceOnline))
	require.NoError(t, err)
	require.Len(t, results, MaxResults)

	// Dropshipping, Twitch Streaming: maxEarning 5000 matches the goal exactly
	assert.Equal(t, "1", results[0].Method.ID)
	assert.Equal(t, "11", results[1].Method.ID)
	for _, r := range results {
		assert.Equal(t, models.CategoryOnline, r.Method.Category)
	}
}

func randomMethod(r *rand.Rand, id int) models.EarningMethod {
	cats := []models.Category{models.CategoryOnline, models.CategoryOffline}
	diffs := []models.Difficulty{models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced}

	minInv := r.Intn(2000)
	minEarn := r.Intn(3000)
	return models.EarningMethod{
		ID:            fmt.Sprintf("r%d", id),
		Name:          fmt.Sprintf("Random %d", id),
		Category:      cats[r.Intn(len(cats))],
		MinInvestment: minInv,
		MaxInvestment: minInv + r.Intn(5000),
		MinEarning:    minEarn,
		MaxEarning:    minEarn + r.Intn(10000),
		Difficulty:    diffs[r.Intn(len(diffs))],
	}
}

func randomQuery(r *rand.Rand) models.UserQuery {
	prefs := []models.Preference{models.PreferenceOnline, models.PreferenceOffline, models.PreferenceBoth}
	investment := r.Intn(6000)
	if r.Intn(5) == 0 {
		investment = 0
	}
	return models.UserQuery{
		Investment:  investment,
		MonthlyGoal: 1 + r.Intn(12000),
		Preference:  prefs[r.Intn(len(prefs))],
	}
}

func TestRecommend_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for iter := 0; iter < 300; iter++ {
		n := r.Intn(40)
		methods := make([]models.EarningMethod, n)
		for i := range methods {
			methods[i] = randomMethod(r, i)
		}
		cat := mustCatalog(t, methods...)
		q := randomQuery(r)

		results, err := Recommend(cat, q)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(results), MaxResults)

		survivors := Survivors(cat, q)
		assert.Equal(t, min(len(survivors), MaxResults), len(results))

		position := make(map[string]int, n)
		for i, m := range cat.Methods() {
			position[m.ID] = i
		}

		for i, res := range results {
			assert.True(t, Eligible(res.Method, q), "filtered-out entry %s returned for %+v", res.Method.ID, q)
			assert.GreaterOrEqual(t, res.MatchScore, 0.0)
			assert.LessOrEqual(t, res.MatchScore, 100.0)
			assert.Equal(t, Score(res.Method, q), res.MatchScore)

			if i == 0 {
				continue
			}
			prev := results[i-1]
			dPrev, dCur := goalDistance(prev.Method, q), goalDistance(res.Method, q)
			assert.LessOrEqual(t, dPrev, dCur, "order not non-decreasing in goal distance")
			if dPrev == dCur {
				assert.Less(t, position[prev.Method.ID], position[res.Method.ID], "tie broke catalog order")
			}
		}

		again, err := Recommend(cat, q)
		require.NoError(t, err)
		assert.Equal(t, results, again)
	}
}

func TestSortResults(t *testing.T) {
	a := method("a", models.CategoryOnline, 300, 1000, 2000)
	a.Difficulty = models.DifficultyAdvanced
	b := method("b", models.CategoryOnline, 100, 1000, 9000)
	b.Difficulty = models.DifficultyIntermediate
	c := method("c", models.CategoryOnline, 100, 1000, 5000)
	c.Difficulty = models.DifficultyBeginner
	d := method("d", models.CategoryOnline, 0, 1000, 9000)
	d.Difficulty = models.DifficultyIntermediate

	results := []models.MatchResult{
		{Method: &a, MatchScore: 10},
		{Method: &b, MatchScore: 20},
		{Method: &c, MatchScore: 30},
		{Method: &d, MatchScore: 40},
	}

	tests := []struct {
		key  models.SortKey
		want []string
	}{
		{"", []string{"a", "b", "c", "d"}},
		{models.SortByMatch, []string{"a", "b", "c", "d"}},
		{models.SortByEarning, []string{"b", "d", "c", "a"}},
		{models.SortByInvestment, []string{"d", "b", "c", "a"}},
		{models.SortByDifficulty, []string{"c", "b", "d", "a"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			sorted, err := SortResults(results, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(sorted))

			for _, r := range sorted {
				want := map[string]float64{"a": 10, "b": 20, "c": 30, "d": 40}[r.Method.ID]
				assert.Equal(t, want, r.MatchScore)
			}
		})
	}

	// Input is not reordered
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(results))

	_, err := SortResults(results, "popularity")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
