// Package query answers cross-event statistical questions over one or more
// independent single-event distributions. The singles are retained alongside
// their convolution because several statistics (per-event label counting,
// first-success decomposition) require per-event identity that convolution
// erases.
package query

import (
	"math"

	"github.com/yipe/dice-sub000/domain/core"
	"github.com/yipe/dice-sub000/domain/dist"
)

// combinedMassTolerance bounds how far the combined convolution's mass may
// drift from 1 and still be auto-normalized. A combined mass beyond it is
// left untouched for the caller to inspect.
const combinedMassTolerance = 1e-6

// Query wraps an ordered sequence of independent single-event distributions
// plus their combined convolution.
type Query struct {
	singles  []*dist.Distribution
	combined *dist.Distribution
	eps      float64
}

// New builds a query over the given independent events. Each single is
// normalized; the combined convolution is computed once and auto-normalized
// when its mass lands near 1.
func New(singles []*dist.Distribution, eps float64) *Query {
	if eps <= 0 {
		eps = dist.DefaultEpsilon
	}
	norm := make([]*dist.Distribution, len(singles))
	combined := dist.Zero(eps)
	for i, s := range singles {
		norm[i] = s.Normalize()
		combined = combined.Convolve(norm[i], eps)
	}
	if !combined.Normalized() && math.Abs(combined.Mass()-1) <= combinedMassTolerance {
		combined = combined.Normalize()
	}
	return &Query{singles: norm, combined: combined, eps: eps}
}

// Len returns the number of independent events.
func (q *Query) Len() int { return len(q.singles) }

// Combined returns the convolution of all events.
func (q *Query) Combined() *dist.Distribution { return q.combined }

// Single returns the i-th event's distribution.
func (q *Query) Single(i int) *dist.Distribution { return q.singles[i] }

// successProbs collects each event's probability of carrying any of the
// given category labels. Per-event label mass is only meaningful while the
// event's provenance is preserved.
func (q *Query) successProbs(labels []dist.Label) ([]float64, error) {
	out := make([]float64, len(q.singles))
	for i, s := range q.singles {
		if !s.ProvenancePreserved() {
			return nil, core.NewInvariantError(core.ErrNoProvenance, s.Signature(),
				"event was folded before querying per-event categories")
		}
		out[i] = s.LabelMass(labels...)
	}
	return out, nil
}

// ProbAtLeastOne returns the probability that at least one event carries any
// of the given labels, by the independent-union formula
// 1 - prod(1 - p_i).
func (q *Query) ProbAtLeastOne(labels ...dist.Label) (float64, error) {
	ps, err := q.successProbs(labels)
	if err != nil {
		return 0, err
	}
	none := 1.0
	for _, p := range ps {
		none *= 1 - p
	}
	return 1 - none, nil
}

// ProbExactlyK returns the probability that exactly k events carry any of
// the given labels, by Poisson-binomial folding: a table of size k+1 updated
// high index to low for each event.
func (q *Query) ProbExactlyK(k int, labels ...dist.Label) (float64, error) {
	if k < 0 || k > len(q.singles) {
		return 0, nil
	}
	table, err := q.foldCounts(k, labels)
	if err != nil {
		return 0, err
	}
	return table[k], nil
}

// ProbAtMostK returns the probability that at most k events carry any of the
// given labels.
func (q *Query) ProbAtMostK(k int, labels ...dist.Label) (float64, error) {
	if k < 0 {
		return 0, nil
	}
	if k >= len(q.singles) {
		return 1, nil
	}
	table, err := q.foldCounts(k, labels)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, p := range table {
		total += p
	}
	return total, nil
}

// ProbAtLeastK returns the probability that at least k events carry any of
// the given labels.
func (q *Query) ProbAtLeastK(k int, labels ...dist.Label) (float64, error) {
	if k <= 0 {
		return 1, nil
	}
	atMost, err := q.ProbAtMostK(k-1, labels...)
	if err != nil {
		return 0, err
	}
	return 1 - atMost, nil
}

// foldCounts runs the Poisson-binomial DP capped at maxK successes:
// table[j] holds P(j successes so far), and each event's success probability
// p updates the table from high index to low so an entry is not consumed
// twice in one step. The final slot absorbs nothing above maxK, which is all
// the at-most/exactly queries need.
func (q *Query) foldCounts(maxK int, labels []dist.Label) ([]float64, error) {
	ps, err := q.successProbs(labels)
	if err != nil {
		return nil, err
	}
	table := make([]float64, maxK+1)
	table[0] = 1
	for _, p := range ps {
		for j := len(table) - 1; j >= 0; j-- {
			table[j] *= 1 - p
			if j > 0 {
				table[j] += table[j-1] * p
			}
		}
	}
	return table, nil
}
