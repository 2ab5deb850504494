package dist

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yipe/dice-sub000/domain/core"
)

// DefaultCacheSize bounds the memoization caches unless a caller injects a
// different budget.
const DefaultCacheSize = 1000

// ConvolutionCache memoizes convolution results across an evaluation.
// It is bounded (LRU eviction) and safe for concurrent use; distributions
// themselves are immutable, so shared results need no further guarding.
type ConvolutionCache struct {
	entries *lru.Cache[string, *Distribution]
}

// NewConvolutionCache creates a bounded convolution cache. A size of zero or
// below falls back to the default budget.
func NewConvolutionCache(size int) *ConvolutionCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *Distribution](size)
	if err != nil {
		// lru.New only fails on non-positive sizes, which the guard above
		// already excludes.
		panic(err)
	}
	return &ConvolutionCache{entries: entries}
}

func (c *ConvolutionCache) get(key string) (*Distribution, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(key)
}

func (c *ConvolutionCache) put(key string, d *Distribution) {
	if c == nil {
		return
	}
	c.entries.Add(key, d)
}

// Len returns the number of memoized convolutions.
func (c *ConvolutionCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// convolutionKey builds an operand-order-independent cache key: sorted
// operand signatures plus a cheap numeric fingerprint of each side.
func convolutionKey(a, b *Distribution, eps float64) string {
	parts := []string{
		string(a.sig) + "#" + fingerprint(a),
		string(b.sig) + "#" + fingerprint(b),
	}
	sort.Strings(parts)
	return strings.Join(parts, "|") + "|" + core.FormatFloat(eps)
}

// fingerprint summarizes a distribution numerically (mass, bin count, sum of
// outcomes) so hash collisions between distinct constructions cannot produce
// false cache hits.
func fingerprint(d *Distribution) string {
	sum := 0
	for v := range d.bins {
		sum += v
	}
	return core.FormatFloat(d.Mass()) + ":" + core.FormatInt(len(d.bins)) + ":" + core.FormatInt(sum)
}
