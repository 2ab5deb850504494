package dist

import (
	"sort"
	"strings"

	"github.com/yipe/dice-sub000/domain/core"
)

// Builder accumulates probability mass into mutable scratch bins and freezes
// the result into an immutable Distribution. Every algebra operation works
// this way internally; a Distribution itself is never mutated in place.
type Builder struct {
	eps  float64
	bins map[int]*Bin
}

// NewBuilder creates an empty builder with the given epsilon tolerance.
func NewBuilder(eps float64) *Builder {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	return &Builder{eps: eps, bins: make(map[int]*Bin)}
}

func (b *Builder) bin(value int) *Bin {
	bin, ok := b.bins[value]
	if !ok {
		bin = &Bin{}
		b.bins[value] = bin
	}
	return bin
}

// Add accumulates unlabeled probability mass at an outcome value.
func (b *Builder) Add(value int, p float64) *Builder {
	b.bin(value).P += p
	return b
}

// AddLabeled accumulates probability mass at an outcome value attributed to
// one category; the damage attribution follows as p times the outcome value.
func (b *Builder) AddLabeled(value int, p float64, label Label) *Builder {
	bin := b.bin(value)
	bin.P += p
	b.addCount(bin, label, p)
	b.addAttr(bin, label, p*float64(value))
	return b
}

func (b *Builder) addCount(bin *Bin, label Label, c float64) {
	if bin.Count == nil {
		bin.Count = make(map[Label]float64)
	}
	bin.Count[label] += c
}

func (b *Builder) addAttr(bin *Bin, label Label, a float64) {
	if bin.Attr == nil {
		bin.Attr = make(map[Label]float64)
	}
	bin.Attr[label] += a
}

// mergeScaled folds another bin into the accumulator at the given outcome,
// with all of its mass multiplied by scale. Used by the mixture and additive
// operations, which carry category bookkeeping through unchanged.
func (b *Builder) mergeScaled(value int, src Bin, scale float64) {
	if scale == 0 {
		return
	}
	bin := b.bin(value)
	bin.P += src.P * scale
	for l, c := range src.Count {
		b.addCount(bin, l, c*scale)
	}
	for l, a := range src.Attr {
		b.addAttr(bin, l, a*scale)
	}
}

// mergeWeighted folds one convolution side's bin in at the paired outcome:
// the side's category mass is weighted by the other side's probability at
// this pairing.
func (b *Builder) mergeWeighted(value int, src Bin, otherP float64) {
	bin := b.bin(value)
	for l, c := range src.Count {
		b.addCount(bin, l, c*otherP)
	}
	for l, a := range src.Attr {
		b.addAttr(bin, l, a*otherP)
	}
}

// Freeze compacts the scratch bins and returns the finished immutable
// Distribution with a content-derived canonical signature.
func (b *Builder) Freeze() *Distribution {
	return b.freeze(core.Signature(""), true)
}

// FreezeSigned freezes with an explicit construction signature and
// provenance flag, for operations that know their own construction history.
func (b *Builder) FreezeSigned(sig core.Signature, provenance bool) *Distribution {
	return b.freeze(sig, provenance)
}

// freeze finalizes the accumulator. When sig is empty a content signature is
// derived; operations that know their construction pass their own. Provenance
// marks whether per-event identity survived the construction.
func (b *Builder) freeze(sig core.Signature, provenance bool) *Distribution {
	bins := make(map[int]Bin, len(b.bins))
	for v, bin := range b.bins {
		bins[v] = bin.clone()
	}
	d := &Distribution{
		bins:       bins,
		eps:        b.eps,
		provenance: provenance,
	}
	d.normalized = approxOne(d.Mass(), b.eps)
	if sig.IsEmpty() {
		sig = contentSignature(bins, b.eps)
	}
	d.sig = sig
	return d
}

// contentSignature derives a canonical signature from bin contents, sorted so
// map iteration order cannot leak in.
func contentSignature(bins map[int]Bin, eps float64) core.Signature {
	values := make([]int, 0, len(bins))
	for v := range bins {
		values = append(values, v)
	}
	sort.Ints(values)

	var data strings.Builder
	data.WriteString(core.FormatFloat(eps))
	for _, v := range values {
		bin := bins[v]
		data.WriteString("|")
		data.WriteString(core.FormatInt(v))
		data.WriteString(":")
		data.WriteString(core.FormatFloat(bin.P))
		labels := make([]string, 0, len(bin.Count))
		for l := range bin.Count {
			labels = append(labels, string(l))
		}
		sort.Strings(labels)
		for _, l := range labels {
			data.WriteString(";")
			data.WriteString(l)
			data.WriteString("=")
			data.WriteString(core.FormatFloat(bin.Count[Label(l)]))
			data.WriteString(",")
			data.WriteString(core.FormatFloat(bin.Attr[Label(l)]))
		}
	}
	return core.SignatureOf("dist", data.String())
}
