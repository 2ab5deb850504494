// Package expr defines the closed set of expression-tree node kinds the
// resolver evaluates. Nodes are plain immutable records: a given tree always
// resolves to the same distribution, which is what makes signature-based
// memoization sound. Constructors validate configuration up front; canonical
// signatures are computed once at construction and memoized on the node.
package expr

import (
	"sort"

	"github.com/yipe/dice-sub000/domain/core"
)

// Node is one immutable expression-tree node.
type Node interface {
	// Signature is the canonical structural signature; equivalent trees sign
	// identically regardless of which front end produced them.
	Signature() core.Signature

	isNode()
}

// Constant always yields a fixed outcome value.
type Constant struct {
	Value int
	sig   core.Signature
}

// NewConstant creates a constant node.
func NewConstant(value int) *Constant {
	return &Constant{
		Value: value,
		sig:   core.SignatureOf("n:const", core.FormatInt(value)),
	}
}

func (n *Constant) Signature() core.Signature { return n.sig }
func (n *Constant) isNode()                   {}

// RepeatedSum sums count independent draws of the child (e.g. the 4 in 4d6).
type RepeatedSum struct {
	Count int
	Child Node
	sig   core.Signature
}

// NewRepeatedSum creates a repeated-sum node. A count of zero is degenerate
// but valid; negative counts are rejected.
func NewRepeatedSum(count int, child Node) (*RepeatedSum, error) {
	if count < 0 {
		return nil, core.NewSpecError(core.ErrInvalidSpec, "repeated-sum count must be non-negative")
	}
	return &RepeatedSum{
		Count: count,
		Child: child,
		sig:   core.SignatureOf("n:repeat", core.FormatInt(count), string(child.Signature())),
	}, nil
}

func (n *RepeatedSum) Signature() core.Signature { return n.sig }
func (n *RepeatedSum) isNode()                   {}

// Term is one signed operand of a WeightedAdd.
type Term struct {
	Child  Node
	Negate bool
}

// WeightedAdd sums signed children (a + b - c). Addition commutes, so terms
// are sorted by child signature before signing.
type WeightedAdd struct {
	Terms []Term
	sig   core.Signature
}

// NewWeightedAdd creates a signed-sum node over the given terms.
func NewWeightedAdd(terms ...Term) (*WeightedAdd, error) {
	if len(terms) == 0 {
		return nil, core.NewSpecError(core.ErrInvalidSpec, "weighted-add needs at least one term")
	}
	own := make([]Term, len(terms))
	copy(own, terms)
	parts := make([]string, len(own))
	for i, t := range own {
		sign := "+"
		if t.Negate {
			sign = "-"
		}
		parts[i] = sign + string(t.Child.Signature())
	}
	sort.Strings(parts)
	return &WeightedAdd{
		Terms: own,
		sig:   core.SignatureOf("n:add", parts...),
	}, nil
}

func (n *WeightedAdd) Signature() core.Signature { return n.sig }
func (n *WeightedAdd) isNode()                   {}

// Halved floors the child's outcome at half value.
type Halved struct {
	Child Node
	sig   core.Signature
}

// NewHalved creates a halved node.
func NewHalved(child Node) *Halved {
	return &Halved{
		Child: child,
		sig:   core.SignatureOf("n:halved", string(child.Signature())),
	}
}

func (n *Halved) Signature() core.Signature { return n.sig }
func (n *Halved) isNode()                   {}
