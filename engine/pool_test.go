package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yipe/dice-sub000/domain/core"
	"github.com/yipe/dice-sub000/domain/dist"
	"github.com/yipe/dice-sub000/domain/expr"
	"github.com/yipe/dice-sub000/internal/testkit"
)

func resolvePoolOf(t *testing.T, mode expr.KeepMode, keep, count, sides int) *dist.Distribution {
	t.Helper()
	die, err := expr.D(sides)
	require.NoError(t, err)
	pool, err := expr.NewKeepPool(mode, keep, count, die)
	require.NoError(t, err)
	out, err := New().Resolve(pool, dist.DefaultEpsilon)
	require.NoError(t, err)
	return out
}

// assertMatchesPMF checks a resolved distribution against a brute-force
// enumerated PMF over the union of both supports.
func assertMatchesPMF(t *testing.T, d *dist.Distribution, pmf map[int]float64, tol float64) {
	t.Helper()
	seen := make(map[int]bool)
	for _, v := range d.Support() {
		seen[v] = true
		assert.InDelta(t, pmf[v], d.ProbAt(v), tol, "outcome %d", v)
	}
	for v, p := range pmf {
		if !seen[v] {
			assert.InDelta(t, p, 0, tol, "missing outcome %d", v)
		}
	}
}

func TestKeepHighest_MatchesEnumeration(t *testing.T) {
	cases := []struct {
		name               string
		sides, count, keep int
	}{
		{"4kh3 d6", 6, 4, 3},
		{"3kh2 d8", 8, 3, 2},
		{"5kh2 d4", 4, 5, 2},
		{"6kh3 d4", 4, 6, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolvePoolOf(t, expr.KeepHighest, tc.keep, tc.count, tc.sides)
			want := testkit.PoolPMF(tc.sides, tc.count, tc.keep, true)
			assertMatchesPMF(t, got, want, 1e-9)
			assert.InDelta(t, testkit.PMFMean(want), got.Mean(), 1e-9)
			assert.InDelta(t, 1.0, got.Mass(), 1e-9)
		})
	}
}

func TestKeepLowest_MatchesEnumeration(t *testing.T) {
	got := resolvePoolOf(t, expr.KeepLowest, 2, 5, 4)
	want := testkit.PoolPMF(4, 5, 2, false)
	assertMatchesPMF(t, got, want, 1e-9)
	assert.InDelta(t, testkit.PMFMean(want), got.Mean(), 1e-9)
}

func TestKeepAll_EqualsRepeatedSum(t *testing.T) {
	die, err := expr.D(6)
	require.NoError(t, err)
	repeat, err := expr.NewRepeatedSum(4, die)
	require.NoError(t, err)

	r := New()
	sum, err := r.Resolve(repeat, dist.DefaultEpsilon)
	require.NoError(t, err)
	kept := resolvePoolOf(t, expr.KeepHighest, 4, 4, 6)

	assert.True(t, dist.SeriesEqual(sum, kept, 1e-12))
}

func TestKeepOne_EqualsAdvantage(t *testing.T) {
	pool := resolvePoolOf(t, expr.KeepHighest, 1, 2, 20)

	die, err := expr.D(20)
	require.NoError(t, err)
	adv, err := expr.NewD20Roll(expr.Advantage, die)
	require.NoError(t, err)
	rolled, err := New().Resolve(adv, dist.DefaultEpsilon)
	require.NoError(t, err)

	assert.True(t, dist.SeriesEqual(pool, rolled, 1e-12))
}

func TestKeepAbovePoolSize_SumsWholePool(t *testing.T) {
	// Asking for more kept dice than are rolled keeps them all.
	kept := resolvePoolOf(t, expr.KeepHighest, 5, 3, 6)

	die, err := expr.D(6)
	require.NoError(t, err)
	repeat, err := expr.NewRepeatedSum(3, die)
	require.NoError(t, err)
	sum, err := New().Resolve(repeat, dist.DefaultEpsilon)
	require.NoError(t, err)

	assert.True(t, dist.SeriesEqual(sum, kept, 1e-12))
	assertMatchesPMF(t, kept, testkit.PoolPMF(6, 3, 5, true), 1e-9)
}

func TestDegeneratePools_YieldNothing(t *testing.T) {
	assert.Equal(t, []int{0}, resolvePoolOf(t, expr.KeepHighest, 3, 0, 6).Support())
	assert.Equal(t, []int{0}, resolvePoolOf(t, expr.KeepHighest, 0, 4, 6).Support())
}

func TestKeepDP_DropsPerEventProvenance(t *testing.T) {
	pool := resolvePoolOf(t, expr.KeepHighest, 3, 4, 6)
	assert.False(t, pool.ProvenancePreserved())
}

func TestAdvantage_D20(t *testing.T) {
	die, err := expr.D(20)
	require.NoError(t, err)
	adv, err := expr.NewD20Roll(expr.Advantage, die)
	require.NoError(t, err)
	d, err := New().Resolve(adv, dist.DefaultEpsilon)
	require.NoError(t, err)

	assert.InDelta(t, 0.0975, d.ProbAt(20), 1e-12)
	assert.InDelta(t, 1.0/400, d.ProbAt(1), 1e-12)
	assert.InDelta(t, 13.825, d.Mean(), 1e-12)
}

func TestDisadvantage_MirrorsAdvantage(t *testing.T) {
	die, err := expr.D(20)
	require.NoError(t, err)
	dis, err := expr.NewD20Roll(expr.Disadvantage, die)
	require.NoError(t, err)
	d, err := New().Resolve(dis, dist.DefaultEpsilon)
	require.NoError(t, err)

	assert.InDelta(t, 0.0975, d.ProbAt(1), 1e-12)
	assert.InDelta(t, 1.0/400, d.ProbAt(20), 1e-12)
	assert.InDelta(t, 21-13.825, d.Mean(), 1e-12)
}

func TestElvenAccuracy_MatchesEnumeration(t *testing.T) {
	die, err := expr.D(20)
	require.NoError(t, err)
	ea, err := expr.NewD20Roll(expr.ElvenAccuracy, die)
	require.NoError(t, err)
	d, err := New().Resolve(ea, dist.DefaultEpsilon)
	require.NoError(t, err)

	assertMatchesPMF(t, d, testkit.PoolPMF(20, 3, 1, true), 1e-9)
}

func TestRollMode_AppliesToRerollAdjustedDie(t *testing.T) {
	// Advantage over a d20 that rerolls 1s: best of two draws of the
	// reweighted single-die distribution.
	die, err := expr.NewDie(expr.DieSpec{Sides: 20, Reroll: 1})
	require.NoError(t, err)
	adv, err := expr.NewD20Roll(expr.Advantage, die)
	require.NoError(t, err)
	d, err := New().Resolve(adv, dist.DefaultEpsilon)
	require.NoError(t, err)

	p1 := 1.0 / 400 // single-die mass left on a natural 1
	assert.InDelta(t, p1*p1, d.ProbAt(1), 1e-12)
	assert.InDelta(t, 1.0, d.Mass(), 1e-12)
}

func TestPoolValidation(t *testing.T) {
	die, err := expr.D(6)
	require.NoError(t, err)

	_, err = expr.NewKeepPool(expr.KeepHighest, -1, 4, die)
	require.Error(t, err)
	assert.True(t, core.IsSpecError(err))
	assert.ErrorIs(t, err, core.ErrInvalidPool)

	_, err = expr.NewKeepPool(expr.KeepMode(9), 1, 2, die)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidPool)
}
