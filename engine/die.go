package engine

import (
	"github.com/yipe/dice-sub000/domain/core"
	"github.com/yipe/dice-sub000/domain/dist"
	"github.com/yipe/dice-sub000/domain/expr"
)

// resolveDie turns a die specification into its base distribution, applying
// reroll reweighting, the minimum-face clamp, and finite explosion in that
// order. Results are memoized per die signature and epsilon.
func (r *Resolver) resolveDie(die *expr.Die, eps float64) *dist.Distribution {
	key := string(die.Signature()) + "@" + core.FormatFloat(eps)
	if r.dieCache != nil {
		if hit, ok := r.dieCache.Get(key); ok {
			return hit
		}
	}
	out := buildDie(die.Spec, eps, r.conv)
	if r.dieCache != nil {
		r.dieCache.Add(key, out)
	}
	return out
}

func buildDie(spec expr.DieSpec, eps float64, conv *dist.ConvolutionCache) *dist.Distribution {
	if spec.Sides == 0 {
		return dist.Zero(eps)
	}
	d := baseFaces(spec, eps)
	if spec.Minimum > 0 {
		d = d.ClampMin(spec.Minimum)
	}
	if spec.Explode > 0 {
		d = explode(d, spec.Explode, eps, conv)
	}
	return d
}

// baseFaces builds the uniform face distribution, with the
// reroll-once-must-keep adjustment applied in closed form: the mass at faces
// at or below the threshold is redistributed uniformly across all faces
// once, not re-applied.
func baseFaces(spec expr.DieSpec, eps float64) *dist.Distribution {
	s := spec.Sides
	perFace := 1 / float64(s)
	rerolled := float64(spec.Reroll) * perFace

	b := dist.NewBuilder(eps)
	for face := 1; face <= s; face++ {
		p := rerolled * perFace
		if face > spec.Reroll {
			p += perFace
		}
		b.Add(face, p)
	}
	return b.Freeze()
}

// explode splits the die into its maximum face versus the rest, convolves
// the fixed number of additional full die rolls onto the max-face branch,
// and recombines via the Bernoulli mixture. The depth cap is hard: the extra
// rolls are never re-checked for new maximum faces, truncating the tail
// beyond the cap.
func explode(d *dist.Distribution, depth int, eps float64, conv *dist.ConvolutionCache) *dist.Distribution {
	support := d.Support()
	if len(support) < 2 {
		return d
	}
	vMax := support[len(support)-1]
	pMax := d.ProbAt(vMax)

	rest := dist.NewBuilder(eps)
	for _, v := range support[:len(support)-1] {
		rest.Add(v, d.ProbAt(v))
	}
	failure := rest.Freeze().Normalize()

	success := d.Power(depth, eps, conv).Shift(vMax)
	return dist.Branch(success, failure, pMax, eps)
}
