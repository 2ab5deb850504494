package dist

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/yipe/dice-sub000/domain/core"
)

// DefaultEpsilon is the default tolerance for bin pruning and approximate
// comparisons across the whole engine.
const DefaultEpsilon = 1e-12

// massDriftTolerance bounds the relative drift allowed between a raw
// convolution's mass and the product of its operand masses before the
// post-hoc invariant check aborts instead of repairing.
const massDriftTolerance = 1e-9

// Distribution is an immutable exact probability mass function over integer
// outcomes, with per-category bookkeeping attached to each bin. All algebra
// operations are pure and return a new Distribution.
type Distribution struct {
	bins       map[int]Bin
	eps        float64
	normalized bool
	provenance bool
	sig        core.Signature
}

// Zero returns the degenerate "nothing" distribution: all mass at outcome 0.
func Zero(eps float64) *Distribution {
	return Constant(0, eps)
}

// Constant returns the distribution that always yields the given value.
func Constant(value int, eps float64) *Distribution {
	b := NewBuilder(eps)
	b.Add(value, 1)
	return b.freeze(core.SignatureOf("const", core.FormatInt(value), core.FormatFloat(b.eps)), true)
}

// Epsilon returns the tolerance the distribution was built with.
func (d *Distribution) Epsilon() float64 { return d.eps }

// Signature returns the canonical construction signature.
func (d *Distribution) Signature() core.Signature { return d.sig }

// Normalized reports whether the total mass is within epsilon of 1.
func (d *Distribution) Normalized() bool { return d.normalized }

// ProvenancePreserved reports whether per-event identity survived the
// distribution's construction. It is false once N identical independent
// events have been folded into one (e.g. via self-convolution shortcuts),
// after which per-event questions can no longer be answered from it.
func (d *Distribution) ProvenancePreserved() bool { return d.provenance }

// Len returns the number of outcome bins.
func (d *Distribution) Len() int { return len(d.bins) }

// Support returns the outcome values in ascending order.
func (d *Distribution) Support() []int {
	values := make([]int, 0, len(d.bins))
	for v := range d.bins {
		values = append(values, v)
	}
	sort.Ints(values)
	return values
}

// BinAt returns a copy of the bin at an outcome value.
func (d *Distribution) BinAt(value int) (Bin, bool) {
	bin, ok := d.bins[value]
	if !ok {
		return Bin{}, false
	}
	return bin.clone(), true
}

// ProbAt returns the probability mass at an outcome value.
func (d *Distribution) ProbAt(value int) float64 {
	return d.bins[value].P
}

// Mass returns the total probability mass.
func (d *Distribution) Mass() float64 {
	ps := make([]float64, 0, len(d.bins))
	for _, bin := range d.bins {
		ps = append(ps, bin.P)
	}
	return floats.Sum(ps)
}

// Equals is cheap signature-based equality: identical constructions compare
// equal without touching bins.
func (d *Distribution) Equals(other *Distribution) bool {
	return d.sig.Equals(other.sig)
}

// Normalize scales the distribution so its mass is exactly 1. Already
// normalized distributions are returned as-is. A massless distribution
// normalizes to the degenerate zero distribution.
func (d *Distribution) Normalize() *Distribution {
	mass := d.Mass()
	if approxOne(mass, d.eps) {
		if d.normalized {
			return d
		}
		out := d.shallowCopy()
		out.normalized = true
		return out
	}
	if mass <= 0 {
		return Zero(d.eps)
	}
	b := NewBuilder(d.eps)
	inv := 1 / mass
	for v, bin := range d.bins {
		b.mergeScaled(v, bin, inv)
	}
	return b.freeze(core.CombineSignatures("normalize", d.sig), d.provenance)
}

// Compact drops bins whose probability falls below eps, along with
// per-label entries below eps, and clamps tiny negative bookkeeping to zero.
// keepFinalBin forces retention of the highest-outcome bin regardless, so a
// guaranteed extreme outcome is never silently dropped.
func (d *Distribution) Compact(eps float64, keepFinalBin bool) *Distribution {
	if eps <= 0 {
		eps = d.eps
	}
	maxOutcome := math.MinInt
	for v := range d.bins {
		if v > maxOutcome {
			maxOutcome = v
		}
	}
	b := NewBuilder(d.eps)
	for v, bin := range d.bins {
		if bin.P < eps && !(keepFinalBin && v == maxOutcome) {
			continue
		}
		out := b.bin(v)
		out.P += bin.P
		for l, c := range bin.Count {
			if math.Abs(c) < eps {
				continue
			}
			b.addCount(out, l, math.Max(c, 0))
		}
		for l, a := range bin.Attr {
			if math.Abs(a) < eps {
				continue
			}
			b.addAttr(out, l, math.Max(a, 0))
		}
	}
	sig := core.SignatureOf("compact", string(d.sig), core.FormatFloat(eps), boolPart(keepFinalBin))
	return b.freeze(sig, d.provenance)
}

func (d *Distribution) shallowCopy() *Distribution {
	out := *d
	return &out
}

func approxOne(mass, eps float64) bool {
	return math.Abs(mass-1) <= eps
}

func boolPart(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
