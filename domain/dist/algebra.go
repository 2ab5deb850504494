package dist

import (
	"fmt"
	"math"
	"sort"

	"github.com/yipe/dice-sub000/domain/core"
)

// Convolve returns the distribution of the independent sum of d and other.
// Both operands are normalized first; use ConvolveRaw for conditional
// (non-unit-mass) branches.
func (d *Distribution) Convolve(other *Distribution, eps float64) *Distribution {
	a, b := d.Normalize(), other.Normalize()
	out, _ := convolvePair(a, b, eps, false)
	return out
}

// ConvolveRaw convolves without pre-normalization. The multiplicative mass
// invariant mass(result) = mass(A) x mass(B) is verified afterwards: small
// floating drift is repaired by rescaling, drift beyond tolerance aborts.
func (d *Distribution) ConvolveRaw(other *Distribution, eps float64) (*Distribution, error) {
	return convolvePair(d, other, eps, true)
}

func convolvePair(a, b *Distribution, eps float64, raw bool) (*Distribution, error) {
	if eps <= 0 {
		eps = a.eps
	}
	acc := NewBuilder(eps)
	for va, ba := range a.bins {
		for vb, bb := range b.bins {
			v := va + vb
			acc.bin(v).P += ba.P * bb.P
			// Each side's category mass is weighted by the other side's
			// probability at this pairing.
			acc.mergeWeighted(v, ba, bb.P)
			acc.mergeWeighted(v, bb, ba.P)
		}
	}
	sig := core.CombineCommutative("convolve", a.sig, b.sig)
	out := acc.freeze(sig, a.provenance && b.provenance)
	if raw {
		want := a.Mass() * b.Mass()
		got := out.Mass()
		drift := math.Abs(got - want)
		if drift > massDriftTolerance*math.Max(1, want) {
			return nil, core.NewInvariantError(core.ErrMassInvariant, sig,
				fmt.Sprintf("mass %g, expected %g", got, want))
		}
		if drift > 0 && got > 0 {
			rescale := NewBuilder(eps)
			factor := want / got
			for v, bin := range out.bins {
				rescale.mergeScaled(v, bin, factor)
			}
			out = rescale.freeze(sig, out.provenance)
		}
	}
	return out.Compact(eps, true), nil
}

// ConvolveCached is Convolve backed by a memoization cache. The key is
// operand-order-independent (signatures sorted) and includes a cheap numeric
// fingerprint of each side to avoid false hits.
func (d *Distribution) ConvolveCached(other *Distribution, eps float64, cache *ConvolutionCache) *Distribution {
	if cache == nil {
		return d.Convolve(other, eps)
	}
	key := convolutionKey(d, other, eps)
	if hit, ok := cache.get(key); ok {
		return hit
	}
	out := d.Convolve(other, eps)
	cache.put(key, out)
	return out
}

// Power returns the n-fold self-convolution via exponentiation by squaring,
// so n independent copies cost O(log n) convolutions. The result no longer
// preserves per-event provenance. n <= 0 yields the degenerate zero
// distribution.
func (d *Distribution) Power(n int, eps float64, cache *ConvolutionCache) *Distribution {
	if eps <= 0 {
		eps = d.eps
	}
	sig := core.SignatureOf("power", string(d.sig), core.FormatInt(n), core.FormatFloat(eps))
	if n <= 0 {
		return Zero(eps)
	}
	var result *Distribution
	base := d.Normalize()
	for m := n; m > 0; m >>= 1 {
		if m&1 == 1 {
			if result == nil {
				result = base
			} else {
				result = result.ConvolveCached(base, eps, cache)
			}
		}
		if m > 1 {
			base = base.ConvolveCached(base, eps, cache)
		}
	}
	out := result.shallowCopy()
	out.provenance = false
	out.sig = sig
	return out
}

// Branch is the Bernoulli mixture p*success + (1-p)*failure. The endpoints
// are exact: p=0 returns failure and p=1 returns success unchanged.
func Branch(success, failure *Distribution, p, eps float64) *Distribution {
	if p <= 0 {
		return failure
	}
	if p >= 1 {
		return success
	}
	if eps <= 0 {
		eps = success.eps
	}
	acc := NewBuilder(eps)
	for v, bin := range success.bins {
		acc.mergeScaled(v, bin, p)
	}
	for v, bin := range failure.bins {
		acc.mergeScaled(v, bin, 1-p)
	}
	sig := core.SignatureOf("branch", string(success.sig), string(failure.sig), core.FormatFloat(p))
	return acc.freeze(sig, success.provenance && failure.provenance)
}

// WithProbability keeps the distribution with probability p and yields
// nothing otherwise.
func (d *Distribution) WithProbability(p, eps float64) *Distribution {
	return Branch(d, Zero(firstPositive(eps, d.eps)), p, eps)
}

// Weighted pairs a distribution with its mixture weight for Exclusive.
type Weighted struct {
	D *Distribution
	W float64
}

// Exclusive is the N-way mutually exclusive mixture over weighted options.
// Weights summing above 1+eps are a hard error; any remainder below 1 is
// implicitly completed with the degenerate zero distribution.
func Exclusive(options []Weighted, eps float64) (*Distribution, error) {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	total := 0.0
	parts := make([]string, 0, len(options))
	for _, opt := range options {
		total += opt.W
		parts = append(parts, string(opt.D.sig)+"*"+core.FormatFloat(opt.W))
	}
	sort.Strings(parts)
	sig := core.SignatureOf("exclusive", parts...)
	if total > 1+eps {
		return nil, core.NewInvariantError(core.ErrWeightOverflow, sig,
			fmt.Sprintf("weights sum to %g", total))
	}
	acc := NewBuilder(eps)
	provenance := true
	for _, opt := range options {
		norm := opt.D.Normalize()
		for v, bin := range norm.bins {
			acc.mergeScaled(v, bin, opt.W)
		}
		provenance = provenance && opt.D.provenance
	}
	if rest := 1 - total; rest > eps {
		acc.Add(0, rest)
	}
	return acc.freeze(sig, provenance), nil
}

// AddScaled adds p times the other distribution's mass directly, without
// rescaling the receiver: mass(result) = mass(d) + p*mass(other). Used to
// accumulate disjoint branches whose total is finalized by the caller.
func (d *Distribution) AddScaled(other *Distribution, p float64) *Distribution {
	acc := NewBuilder(d.eps)
	for v, bin := range d.bins {
		acc.mergeScaled(v, bin, 1)
	}
	for v, bin := range other.bins {
		acc.mergeScaled(v, bin, p)
	}
	sig := core.SignatureOf("addScaled", string(d.sig), string(other.sig), core.FormatFloat(p))
	return acc.freeze(sig, d.provenance && other.provenance)
}

// MapDamage re-keys every bin through f, merging collisions by summing
// probabilities and category bookkeeping. The tag names the mapping in the
// result's signature; equal tags with equal inputs sign identically.
func (d *Distribution) MapDamage(tag string, f func(int) int) *Distribution {
	acc := NewBuilder(d.eps)
	for v, bin := range d.bins {
		acc.mergeScaled(f(v), bin, 1)
	}
	sig := core.SignatureOf("map", string(d.sig), tag)
	return acc.freeze(sig, d.provenance)
}

// Negate mirrors the distribution across zero. Used to derive worst-of pools
// from best-of pools.
func (d *Distribution) Negate() *Distribution {
	return d.MapDamage("negate", func(v int) int { return -v })
}

// Shift translates every outcome by k.
func (d *Distribution) Shift(k int) *Distribution {
	return d.MapDamage("shift:"+core.FormatInt(k), func(v int) int { return v + k })
}

// Halve floors every outcome at half value, the usual resistance rounding.
func (d *Distribution) Halve() *Distribution {
	return d.MapDamage("halve", floorHalf)
}

// ClampMin raises every outcome below m up to m.
func (d *Distribution) ClampMin(m int) *Distribution {
	return d.MapDamage("clampMin:"+core.FormatInt(m), func(v int) int {
		if v < m {
			return m
		}
		return v
	})
}

// FillResidual attributes each bin's unlabeled leftover mass to the given
// category. Front ends that hand over raw per-category counts rely on this to
// derive a residual "hit" category once at the end.
func (d *Distribution) FillResidual(label Label) *Distribution {
	acc := NewBuilder(d.eps)
	for v, bin := range d.bins {
		acc.mergeScaled(v, bin, 1)
		if left := bin.Leftover(); left > d.eps {
			out := acc.bin(v)
			acc.addCount(out, label, left)
			acc.addAttr(out, label, left*float64(v))
		}
	}
	sig := core.SignatureOf("residual", string(d.sig), string(label))
	return acc.freeze(sig, d.provenance)
}

// Finalize is the single end-of-construction normalization for front ends
// that hand over raw per-category bin counts: scale to unit mass, then
// derive the residual category for whatever mass was left unlabeled.
func (d *Distribution) Finalize(residual Label) *Distribution {
	return d.Normalize().FillResidual(residual)
}

// PruneRelative keeps bins whose probability is at least epsRel times the
// peak bin probability. The global minimum and maximum outcomes are always
// kept; if fewer than minBins bins survive, the cut is backfilled by
// probability rank. Repeated convolution and explosion can blow up bin counts
// combinatorially, and this is the safety valve.
func (d *Distribution) PruneRelative(epsRel float64, minBins int) *Distribution {
	if len(d.bins) == 0 || len(d.bins) <= minBins {
		return d
	}
	peak := 0.0
	minOutcome, maxOutcome := math.MaxInt, math.MinInt
	for v, bin := range d.bins {
		if bin.P > peak {
			peak = bin.P
		}
		if v < minOutcome {
			minOutcome = v
		}
		if v > maxOutcome {
			maxOutcome = v
		}
	}
	threshold := epsRel * peak
	keep := make(map[int]bool, len(d.bins))
	dropped := make([]int, 0)
	for v, bin := range d.bins {
		if bin.P >= threshold || v == minOutcome || v == maxOutcome {
			keep[v] = true
		} else {
			dropped = append(dropped, v)
		}
	}
	if len(keep) < minBins {
		sort.Slice(dropped, func(i, j int) bool {
			pi, pj := d.bins[dropped[i]].P, d.bins[dropped[j]].P
			if pi != pj {
				return pi > pj
			}
			return dropped[i] < dropped[j]
		})
		for _, v := range dropped {
			if len(keep) >= minBins {
				break
			}
			keep[v] = true
		}
	}
	acc := NewBuilder(d.eps)
	for v := range keep {
		acc.mergeScaled(v, d.bins[v], 1)
	}
	sig := core.SignatureOf("prune", string(d.sig), core.FormatFloat(epsRel), core.FormatInt(minBins))
	return acc.freeze(sig, d.provenance)
}

func floorHalf(v int) int {
	if v >= 0 {
		return v / 2
	}
	return -((-v + 1) / 2)
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return DefaultEpsilon
}
