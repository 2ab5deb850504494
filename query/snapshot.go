package query

import (
	"sort"

	"github.com/yipe/dice-sub000/domain/dist"
)

// Snapshot is a read-only aggregate of the combined distribution for
// reporting: central statistics, quartiles, and a per-label breakdown.
type Snapshot struct {
	Mean       float64
	ProbDamage float64 // P(outcome > 0)
	P25        int
	P50        int
	P75        int
	Labels     map[dist.Label]dist.LabelSummary
}

// Percentile returns the smallest outcome whose cumulative probability
// reaches p, by binary search over the cumulative sum of the sorted support.
func (q *Query) Percentile(p float64) int {
	series := q.combined.CumulativeSeries()
	if len(series) == 0 {
		return 0
	}
	idx := sort.Search(len(series), func(i int) bool {
		return series[i].P >= p
	})
	if idx >= len(series) {
		idx = len(series) - 1
	}
	return series[idx].Value
}

// Snapshot computes the read-only reporting aggregate.
func (q *Query) Snapshot() Snapshot {
	snap := Snapshot{
		Mean:       q.combined.Mean(),
		ProbDamage: q.combined.ProbGreaterThan(0),
		P25:        q.Percentile(0.25),
		P50:        q.Percentile(0.50),
		P75:        q.Percentile(0.75),
		Labels:     make(map[dist.Label]dist.LabelSummary),
	}
	for _, row := range q.combined.TableRows() {
		for label := range row.PerLabel {
			if _, seen := snap.Labels[label]; seen {
				continue
			}
			if sum, ok := q.combined.LabelSummaryOf(label); ok {
				snap.Labels[label] = sum
			}
		}
	}
	return snap
}
