// Package engine resolves expression trees into exact probability
// distributions. Resolution is synchronous recursive evaluation over the
// closed node set of domain/expr, memoized on canonical structural
// signatures.
package engine

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yipe/dice-sub000/domain/core"
	"github.com/yipe/dice-sub000/domain/dist"
	"github.com/yipe/dice-sub000/domain/expr"
)

// Options sizes the resolver's bounded memoization caches. Caches are
// injectable so determinism tests can disable them entirely.
type Options struct {
	ExprCacheSize int
	DieCacheSize  int
	ConvCacheSize int
	DisableCache  bool
}

// DefaultOptions returns the standard cache budgets.
func DefaultOptions() Options {
	return Options{
		ExprCacheSize: dist.DefaultCacheSize,
		DieCacheSize:  dist.DefaultCacheSize,
		ConvCacheSize: dist.DefaultCacheSize,
	}
}

// Resolver evaluates expression trees. It is safe for concurrent use: the
// caches guard themselves and distributions are immutable.
type Resolver struct {
	exprCache *lru.Cache[string, *dist.Distribution]
	dieCache  *lru.Cache[string, *dist.Distribution]
	conv      *dist.ConvolutionCache
}

// New creates a resolver with default cache budgets.
func New() *Resolver {
	return NewResolver(DefaultOptions())
}

// NewResolver creates a resolver with the given cache configuration.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{}
	if opts.DisableCache {
		return r
	}
	r.exprCache = mustCache(opts.ExprCacheSize)
	r.dieCache = mustCache(opts.DieCacheSize)
	r.conv = dist.NewConvolutionCache(opts.ConvCacheSize)
	return r
}

func mustCache(size int) *lru.Cache[string, *dist.Distribution] {
	if size <= 0 {
		size = dist.DefaultCacheSize
	}
	c, err := lru.New[string, *dist.Distribution](size)
	if err != nil {
		panic(err)
	}
	return c
}

// Resolve folds an expression tree into its exact distribution. The memo key
// is the subtree's canonical signature plus eps; equivalent trees therefore
// share cache entries regardless of which front end produced them.
func (r *Resolver) Resolve(node expr.Node, eps float64) (*dist.Distribution, error) {
	if eps <= 0 {
		eps = dist.DefaultEpsilon
	}
	key := string(node.Signature()) + "@" + core.FormatFloat(eps)
	if r.exprCache != nil {
		if hit, ok := r.exprCache.Get(key); ok {
			return hit, nil
		}
	}
	out, err := r.resolve(node, eps)
	if err != nil {
		return nil, err
	}
	if r.exprCache != nil {
		r.exprCache.Add(key, out)
	}
	return out, nil
}

func (r *Resolver) resolve(node expr.Node, eps float64) (*dist.Distribution, error) {
	switch n := node.(type) {
	case *expr.Constant:
		return dist.Constant(n.Value, eps), nil

	case *expr.Die:
		return r.resolveDie(n, eps), nil

	case *expr.RepeatedSum:
		child, err := r.Resolve(n.Child, eps)
		if err != nil {
			return nil, err
		}
		return child.Power(n.Count, eps, r.conv), nil

	case *expr.WeightedAdd:
		return r.resolveWeightedAdd(n, eps)

	case *expr.KeepPool:
		return r.resolvePool(n, eps)

	case *expr.D20Roll:
		child, err := r.Resolve(n.Child, eps)
		if err != nil {
			return nil, err
		}
		return rollMode(child.Normalize(), n.Mode, eps), nil

	case *expr.Halved:
		child, err := r.Resolve(n.Child, eps)
		if err != nil {
			return nil, err
		}
		return child.Halve(), nil

	default:
		return nil, fmt.Errorf("%w: unknown node kind %T", core.ErrInvalidSpec, node)
	}
}

func (r *Resolver) resolveWeightedAdd(n *expr.WeightedAdd, eps float64) (*dist.Distribution, error) {
	var out *dist.Distribution
	for _, term := range n.Terms {
		child, err := r.Resolve(term.Child, eps)
		if err != nil {
			return nil, err
		}
		if term.Negate {
			child = child.Negate()
		}
		if out == nil {
			out = child.Normalize()
			continue
		}
		out = out.ConvolveCached(child, eps, r.conv)
	}
	return out, nil
}
