package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/yipe/dice-sub000/domain/core"
	"github.com/yipe/dice-sub000/domain/dist"
	"github.com/yipe/dice-sub000/domain/expr"
)

// resolvePool evaluates an order-statistic keep-N-of-M node. Keep-lowest is
// reduced to keep-highest by negating the pooled child.
func (r *Resolver) resolvePool(n *expr.KeepPool, eps float64) (*dist.Distribution, error) {
	child, err := r.Resolve(n.Child, eps)
	if err != nil {
		return nil, err
	}
	child = child.Normalize()
	if n.Mode == expr.KeepLowest {
		return r.keepHighest(child.Negate(), n.Keep, n.Count, eps).Negate(), nil
	}
	return r.keepHighest(child, n.Keep, n.Count, eps), nil
}

// keepHighest sums the best keep of m i.i.d. draws of d.
//
// Fast paths: keeping everything is an m-fold self-convolution; keeping
// nothing is the degenerate zero; keeping one is max-of-m via the CDF-power
// identity. The general case runs a conditional-binomial dynamic program over
// the distinct face values, processed from the best end.
func (r *Resolver) keepHighest(d *dist.Distribution, keep, m int, eps float64) *dist.Distribution {
	switch {
	case m == 0 || keep == 0:
		return dist.Zero(eps)
	case keep >= m:
		return d.Power(m, eps, r.conv)
	case keep == 1:
		return bestOf(d, m, eps)
	}
	return keepDP(d, keep, m, eps)
}

// poolState keys the DP table: trials already committed to the kept sum, and
// trials still unassigned.
type poolState struct {
	committed int
	remaining int
}

// keepDP runs the pruned conditional-binomial dynamic program.
//
// Faces are visited from the best end. For face value v with probability p
// conditioned on not already having been assigned to a better face, each
// state's remaining-trial count r is split by a Binomial(r, pCond) kernel: of
// x trials landing on v, min(x, remaining keep-quota) contribute v to the
// kept sum. Near-zero partial-sum entries are pruned after each face. The
// answer is the state with all m trials consumed and exactly keep committed.
func keepDP(d *dist.Distribution, keep, m int, eps float64) *dist.Distribution {
	support := d.Support()
	states := map[poolState]map[int]float64{
		{committed: 0, remaining: m}: {0: 1},
	}

	tail := 1.0
	for i := len(support) - 1; i >= 0; i-- {
		v := support[i]
		p := d.ProbAt(v)
		pCond := 1.0
		if tail > p {
			pCond = p / tail
		}
		tail -= p

		next := make(map[poolState]map[int]float64, len(states))
		for st, sums := range states {
			if st.remaining == 0 {
				mergeSums(next, st, sums, 1)
				continue
			}
			kernel := binomialKernel(st.remaining, pCond)
			for x, w := range kernel {
				if w == 0 {
					continue
				}
				take := x
				if quota := keep - st.committed; take > quota {
					take = quota
				}
				ns := poolState{committed: st.committed + take, remaining: st.remaining - x}
				shifted := make(map[int]float64, len(sums))
				for s, q := range sums {
					shifted[s+take*v] = q
				}
				mergeSums(next, ns, shifted, w)
			}
		}
		pruneStates(next, eps)
		states = next
	}

	answer := states[poolState{committed: keep, remaining: 0}]
	b := dist.NewBuilder(eps)
	for s, q := range answer {
		b.Add(s, q)
	}
	sig := core.SignatureOf("keep-dp",
		string(d.Signature()), core.FormatInt(keep), core.FormatInt(m), core.FormatFloat(eps))
	return b.FreezeSigned(sig, false)
}

func mergeSums(table map[poolState]map[int]float64, st poolState, sums map[int]float64, w float64) {
	dst, ok := table[st]
	if !ok {
		dst = make(map[int]float64, len(sums))
		table[st] = dst
	}
	for s, q := range sums {
		dst[s] += q * w
	}
}

func pruneStates(table map[poolState]map[int]float64, eps float64) {
	for st, sums := range table {
		for s, q := range sums {
			if q < eps {
				delete(sums, s)
			}
		}
		if len(sums) == 0 {
			delete(table, st)
		}
	}
}

// binomialKernel returns the Binomial(n, p) PMF by the stable multiplicative
// recurrence from k=0, renormalized when the total drifts. Probabilities
// above one half are computed on the mirrored complement to keep the
// recurrence's starting term away from underflow.
func binomialKernel(n int, p float64) []float64 {
	out := make([]float64, n+1)
	switch {
	case p <= 0:
		out[0] = 1
		return out
	case p >= 1:
		out[n] = 1
		return out
	case p > 0.5:
		mirrored := binomialKernel(n, 1-p)
		for k := 0; k <= n; k++ {
			out[k] = mirrored[n-k]
		}
		return out
	}

	q := 1 - p
	ratio := p / q
	b := math.Pow(q, float64(n))
	out[0] = b
	for k := 1; k <= n; k++ {
		b *= ratio * float64(n-k+1) / float64(k)
		out[k] = b
	}
	if sum := floats.Sum(out); sum > 0 && math.Abs(sum-1) > 1e-15 {
		floats.Scale(1/sum, out)
	}
	return out
}
