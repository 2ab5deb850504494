// Package testkit provides deterministic brute-force enumerators used by
// tests to cross-check the exact-inference algorithms against exhaustive
// enumeration on small inputs.
package testkit

import (
	"sort"

	"gonum.org/v1/gonum/stat/combin"
)

// PoolPMF enumerates all sides^m equally likely dice pools and returns the
// exact PMF of the sum of the kept dice (the keep highest, or lowest, of m).
// Intended for small pools; the state space is exponential by design.
func PoolPMF(sides, m, keep int, highest bool) map[int]float64 {
	out := make(map[int]float64)
	if m == 0 || keep == 0 || sides == 0 {
		out[0] = 1
		return out
	}
	lens := make([]int, m)
	for i := range lens {
		lens[i] = sides
	}
	gen := combin.NewCartesianGenerator(lens)
	total := 0
	faces := make([]int, m)
	for gen.Next() {
		gen.Product(faces)
		rolled := make([]int, m)
		for i, f := range faces {
			rolled[i] = f + 1
		}
		sort.Ints(rolled)
		sum := 0
		if highest {
			for _, f := range rolled[m-keepCount(keep, m):] {
				sum += f
			}
		} else {
			for _, f := range rolled[:keepCount(keep, m)] {
				sum += f
			}
		}
		out[sum]++
		total++
	}
	for s := range out {
		out[s] /= float64(total)
	}
	return out
}

func keepCount(keep, m int) int {
	if keep > m {
		return m
	}
	return keep
}

// BernoulliCounts enumerates all 2^n outcomes of independent Bernoulli
// trials with the given success probabilities and returns P(exactly k
// successes) for k = 0..n.
func BernoulliCounts(ps []float64) []float64 {
	n := len(ps)
	out := make([]float64, n+1)
	for mask := 0; mask < 1<<n; mask++ {
		p := 1.0
		successes := 0
		for i, pi := range ps {
			if mask&(1<<i) != 0 {
				p *= pi
				successes++
			} else {
				p *= 1 - pi
			}
		}
		out[successes] += p
	}
	return out
}

// FaceSamples expands a fair die's faces into a float sample per face, for
// descriptive-statistics cross-checks.
func FaceSamples(sides int) []float64 {
	out := make([]float64, sides)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

// PMFMean returns the expectation of an enumerated PMF.
func PMFMean(pmf map[int]float64) float64 {
	mean := 0.0
	for v, p := range pmf {
		mean += float64(v) * p
	}
	return mean
}
