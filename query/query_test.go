package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yipe/dice-sub000/domain/core"
	"github.com/yipe/dice-sub000/domain/dist"
	"github.com/yipe/dice-sub000/internal/testkit"
)

// saveEvent is one saving throw: fail deals 7 with probability 0.35,
// otherwise nothing happens.
func saveEvent() *dist.Distribution {
	b := dist.NewBuilder(dist.DefaultEpsilon)
	b.AddLabeled(7, 0.35, dist.LabelSaveFail)
	b.AddLabeled(0, 0.65, dist.LabelSavePass)
	return b.Freeze()
}

func saveQuery(n int) *Query {
	singles := make([]*dist.Distribution, n)
	for i := range singles {
		singles[i] = saveEvent()
	}
	return New(singles, dist.DefaultEpsilon)
}

func TestQuery_CombinedConvolution(t *testing.T) {
	q := saveQuery(5)
	require.Equal(t, 5, q.Len())

	combined := q.Combined()
	assert.InDelta(t, 1.0, combined.Mass(), 1e-12)
	assert.InDelta(t, 5*0.35*7, combined.Mean(), 1e-9)
	// All five fail: 7 damage each.
	assert.InDelta(t, 0.35*0.35*0.35*0.35*0.35, combined.ProbAt(35), 1e-12)
}

func TestProbAtLeastOne_IndependentUnion(t *testing.T) {
	q := saveQuery(5)
	got, err := q.ProbAtLeastOne(dist.LabelSaveFail)
	require.NoError(t, err)

	none := 0.65 * 0.65 * 0.65 * 0.65 * 0.65
	assert.InDelta(t, 1-none, got, 1e-12)
}

func TestCountQueries_MatchEnumeration(t *testing.T) {
	q := saveQuery(5)
	ps := []float64{0.35, 0.35, 0.35, 0.35, 0.35}
	want := testkit.BernoulliCounts(ps)

	for k := 0; k <= 5; k++ {
		exact, err := q.ProbExactlyK(k, dist.LabelSaveFail)
		require.NoError(t, err)
		assert.InDelta(t, want[k], exact, 1e-9, "exactly %d", k)

		atLeast, err := q.ProbAtLeastK(k, dist.LabelSaveFail)
		require.NoError(t, err)
		tail := 0.0
		for j := k; j <= 5; j++ {
			tail += want[j]
		}
		assert.InDelta(t, tail, atLeast, 1e-9, "at least %d", k)
	}
}

func TestExactlyK_SumsToUnity(t *testing.T) {
	q := saveQuery(4)
	total := 0.0
	for k := 0; k <= 4; k++ {
		p, err := q.ProbExactlyK(k, dist.LabelSaveFail)
		require.NoError(t, err)
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}

func TestCountQueries_OutOfRange(t *testing.T) {
	q := saveQuery(3)

	p, err := q.ProbExactlyK(-1, dist.LabelSaveFail)
	require.NoError(t, err)
	assert.Zero(t, p)

	p, err = q.ProbExactlyK(4, dist.LabelSaveFail)
	require.NoError(t, err)
	assert.Zero(t, p)

	p, err = q.ProbAtLeastK(0, dist.LabelSaveFail)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	p, err = q.ProbAtMostK(3, dist.LabelSaveFail)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)
}

func TestPerEventQueries_RequireProvenance(t *testing.T) {
	folded := saveEvent().Power(2, dist.DefaultEpsilon, nil)
	require.False(t, folded.ProvenancePreserved())
	q := New([]*dist.Distribution{folded}, dist.DefaultEpsilon)

	_, err := q.ProbAtLeastOne(dist.LabelSaveFail)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoProvenance)

	_, err = q.ProbExactlyK(1, dist.LabelSaveFail)
	assert.ErrorIs(t, err, core.ErrNoProvenance)

	// The combined distribution stays fully usable.
	assert.InDelta(t, 2*0.35*7, q.Combined().Mean(), 1e-9)
}

func TestQuery_CombinedAutoNormalizesNearUnitMass(t *testing.T) {
	q := saveQuery(3)
	combined := q.Combined()

	// Convolution of normalized singles drifts from unit mass by at most
	// accumulated rounding, which the auto-normalization threshold covers.
	assert.True(t, combined.Normalized())
	assert.InDelta(t, 1.0, combined.Mass(), 1e-12)
}

func TestQuery_NormalizesRawSingles(t *testing.T) {
	// Raw counts out of 20 outcomes, handed over without normalizing.
	b := dist.NewBuilder(dist.DefaultEpsilon)
	b.AddLabeled(7, 7, dist.LabelSaveFail)
	b.AddLabeled(0, 13, dist.LabelSavePass)
	q := New([]*dist.Distribution{b.Freeze()}, dist.DefaultEpsilon)

	got, err := q.ProbAtLeastOne(dist.LabelSaveFail)
	require.NoError(t, err)
	assert.InDelta(t, 0.35, got, 1e-12)
	assert.InDelta(t, 1.0, q.Single(0).Mass(), 1e-12)
}
