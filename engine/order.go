package engine

import (
	"math"

	"github.com/yipe/dice-sub000/domain/core"
	"github.com/yipe/dice-sub000/domain/dist"
	"github.com/yipe/dice-sub000/domain/expr"
)

// bestOf returns the distribution of the maximum of k independent draws,
// using the CDF-power identity P(max <= x) = F(x)^k evaluated over the
// distinct sorted support rather than the dense integer range.
func bestOf(d *dist.Distribution, k int, eps float64) *dist.Distribution {
	norm := d.Normalize()
	b := dist.NewBuilder(eps)
	prev := 0.0
	for _, v := range norm.Support() {
		cdf := prev + norm.ProbAt(v)
		b.Add(v, math.Pow(cdf, float64(k))-math.Pow(prev, float64(k)))
		prev = cdf
	}
	sig := core.SignatureOf("bestOf", string(d.Signature()), core.FormatInt(k), core.FormatFloat(eps))
	return b.FreezeSigned(sig, d.ProvenancePreserved())
}

// worstOf is the minimum of k independent draws, derived from bestOf by
// negation.
func worstOf(d *dist.Distribution, k int, eps float64) *dist.Distribution {
	return bestOf(d.Negate(), k, eps).Negate()
}

// rollMode applies a special d20 roll variant to a resolved child
// distribution via the CDF-power identity against the (possibly
// reroll-adjusted) single-die distribution.
func rollMode(d *dist.Distribution, mode expr.RollMode, eps float64) *dist.Distribution {
	switch mode {
	case expr.Disadvantage:
		return worstOf(d, 2, eps)
	case expr.ElvenAccuracy:
		return bestOf(d, 3, eps)
	default:
		return bestOf(d, 2, eps)
	}
}
