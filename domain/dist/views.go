package dist

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

// Point is one entry of a per-outcome probability series.
type Point struct {
	Value int
	P     float64
}

// TableRow is a labeled reporting row for one outcome: total probability plus
// the per-category share of it.
type TableRow struct {
	Value    int
	P        float64
	PerLabel map[Label]float64
}

// LabelSummary aggregates one category across the whole distribution.
type LabelSummary struct {
	Probability float64 // occurrence probability of the category
	MinDamage   int     // smallest outcome carrying the category
	MaxDamage   int     // largest outcome carrying the category
	AvgDamage   float64 // attributed damage per occurrence
}

// Series returns the per-outcome probability series in ascending outcome
// order.
func (d *Distribution) Series() []Point {
	support := d.Support()
	out := make([]Point, len(support))
	for i, v := range support {
		out[i] = Point{Value: v, P: d.bins[v].P}
	}
	return out
}

// CumulativeSeries returns P(X <= v) over the support.
func (d *Distribution) CumulativeSeries() []Point {
	out := d.Series()
	run := 0.0
	for i := range out {
		run += out[i].P
		out[i].P = run
	}
	return out
}

// ComplementarySeries returns P(X >= v) over the support.
func (d *Distribution) ComplementarySeries() []Point {
	out := d.Series()
	run := 0.0
	for i := len(out) - 1; i >= 0; i-- {
		run += out[i].P
		out[i].P = run
	}
	return out
}

// Mean returns the probability-weighted mean outcome. A massless
// distribution has mean zero.
func (d *Distribution) Mean() float64 {
	if len(d.bins) == 0 {
		return 0
	}
	support := d.Support()
	values := make([]float64, len(support))
	weights := make([]float64, len(support))
	for i, v := range support {
		values[i] = float64(v)
		weights[i] = d.bins[v].P
	}
	if floats.Sum(weights) <= 0 {
		return 0
	}
	return stat.Mean(values, weights)
}

// ProbGreaterThan returns P(X > x).
func (d *Distribution) ProbGreaterThan(x int) float64 {
	total := 0.0
	for v, bin := range d.bins {
		if v > x {
			total += bin.P
		}
	}
	return total
}

// LabelMass returns the total probability attributed to any of the given
// categories.
func (d *Distribution) LabelMass(labels ...Label) float64 {
	total := 0.0
	for _, bin := range d.bins {
		for _, l := range labels {
			total += bin.Count[l]
		}
	}
	return total
}

// LabelSummaryOf aggregates a category's occurrence probability and its
// conditional damage range. The boolean is false when the category never
// occurs.
func (d *Distribution) LabelSummaryOf(label Label) (LabelSummary, bool) {
	sum := LabelSummary{MinDamage: math.MaxInt, MaxDamage: math.MinInt}
	attr := 0.0
	for v, bin := range d.bins {
		c := bin.Count[label]
		if c <= d.eps {
			continue
		}
		sum.Probability += c
		attr += bin.Attr[label]
		if v < sum.MinDamage {
			sum.MinDamage = v
		}
		if v > sum.MaxDamage {
			sum.MaxDamage = v
		}
	}
	if sum.Probability <= d.eps {
		return LabelSummary{}, false
	}
	sum.AvgDamage = attr / sum.Probability
	return sum, true
}

// TableRows returns labeled reporting rows over the support, restricted to
// the given categories (or all categories present when none are given).
func (d *Distribution) TableRows(labels ...Label) []TableRow {
	support := d.Support()
	rows := make([]TableRow, len(support))
	for i, v := range support {
		bin := d.bins[v]
		row := TableRow{Value: v, P: bin.P, PerLabel: make(map[Label]float64)}
		if len(labels) == 0 {
			for l, c := range bin.Count {
				row.PerLabel[l] = c
			}
		} else {
			for _, l := range labels {
				if c, ok := bin.Count[l]; ok {
					row.PerLabel[l] = c
				}
			}
		}
		rows[i] = row
	}
	return rows
}

// SeriesEqual compares two distributions' series within a tolerance:
// identical support and per-bin probabilities within tol.
func SeriesEqual(a, b *Distribution, tol float64) bool {
	sa, sb := a.Series(), b.Series()
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i].Value != sb[i].Value {
			return false
		}
		if !scalar.EqualWithinAbs(sa[i].P, sb[i].P, tol) {
			return false
		}
	}
	return true
}
