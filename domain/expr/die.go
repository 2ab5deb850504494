package expr

import (
	"github.com/yipe/dice-sub000/domain/core"
)

// DieSpec configures a single die. The zero value of every optional field
// means "off".
type DieSpec struct {
	// Sides is the face count. Zero sides is degenerate but valid: the die
	// always yields nothing.
	Sides int

	// Reroll is the reroll-once-must-keep threshold: faces at or below it are
	// rerolled exactly once and the second result kept.
	Reroll int

	// Minimum raises any final face below it up to it.
	Minimum int

	// Explode is the finite explosion count: additional full die rolls
	// granted when the maximum face shows. The cap is hard; the extra rolls
	// are never re-checked for new maximum faces, so the tail beyond the cap
	// is truncated.
	Explode int
}

// Die is a single-die leaf node.
type Die struct {
	Spec DieSpec
	sig  core.Signature
}

// NewDie validates a die specification and creates the leaf node.
func NewDie(spec DieSpec) (*Die, error) {
	if spec.Sides < 0 {
		return nil, core.NewSpecError(core.ErrInvalidDie, "sides must be non-negative")
	}
	if spec.Reroll < 0 || spec.Reroll > spec.Sides {
		return nil, core.NewSpecError(core.ErrInvalidDie, "reroll threshold out of face range")
	}
	if spec.Minimum < 0 || spec.Minimum > spec.Sides {
		return nil, core.NewSpecError(core.ErrInvalidDie, "minimum face out of range")
	}
	if spec.Explode < 0 {
		return nil, core.NewSpecError(core.ErrInvalidExplosion, "explosion count must be non-negative")
	}
	return &Die{
		Spec: spec,
		sig: core.SignatureOf("n:die",
			core.FormatInt(spec.Sides),
			core.FormatInt(spec.Reroll),
			core.FormatInt(spec.Minimum),
			core.FormatInt(spec.Explode)),
	}, nil
}

// D returns a plain die with the given number of sides.
func D(sides int) (*Die, error) {
	return NewDie(DieSpec{Sides: sides})
}

func (n *Die) Signature() core.Signature { return n.sig }
func (n *Die) isNode()                   {}

// KeepMode selects which end of a pool the kept dice come from.
type KeepMode int

const (
	KeepHighest KeepMode = iota
	KeepLowest
)

func (m KeepMode) String() string {
	if m == KeepLowest {
		return "lowest"
	}
	return "highest"
}

// KeepPool sums the best (or worst) Keep of Count independent draws of the
// pooled child, e.g. 4kh3(d6).
type KeepPool struct {
	Mode  KeepMode
	Keep  int
	Count int
	Child Node
	sig   core.Signature
}

// NewKeepPool validates and creates an order-statistic pool node. An empty
// pool or a keep count at or above the pool size are degenerate but valid.
func NewKeepPool(mode KeepMode, keep, count int, child Node) (*KeepPool, error) {
	if mode != KeepHighest && mode != KeepLowest {
		return nil, core.NewSpecError(core.ErrInvalidPool, "unknown keep mode")
	}
	if keep < 0 || count < 0 {
		return nil, core.NewSpecError(core.ErrInvalidPool, "pool size and keep count must be non-negative")
	}
	return &KeepPool{
		Mode:  mode,
		Keep:  keep,
		Count: count,
		Child: child,
		sig: core.SignatureOf("n:keep",
			mode.String(),
			core.FormatInt(keep),
			core.FormatInt(count),
			string(child.Signature())),
	}, nil
}

func (n *KeepPool) Signature() core.Signature { return n.sig }
func (n *KeepPool) isNode()                   {}

// RollMode is a special d20 roll variant.
type RollMode int

const (
	Advantage RollMode = iota
	Disadvantage
	ElvenAccuracy
)

func (m RollMode) String() string {
	switch m {
	case Disadvantage:
		return "disadvantage"
	case ElvenAccuracy:
		return "elven-accuracy"
	default:
		return "advantage"
	}
}

// D20Roll applies a d20 roll mode to the (possibly reroll-adjusted) child:
// best of two, worst of two, or best of three draws.
type D20Roll struct {
	Mode  RollMode
	Child Node
	sig   core.Signature
}

// NewD20Roll creates a d20 roll-mode node.
func NewD20Roll(mode RollMode, child Node) (*D20Roll, error) {
	if mode != Advantage && mode != Disadvantage && mode != ElvenAccuracy {
		return nil, core.NewSpecError(core.ErrInvalidSpec, "unknown roll mode")
	}
	return &D20Roll{
		Mode:  mode,
		Child: child,
		sig:   core.SignatureOf("n:d20", mode.String(), string(child.Signature())),
	}, nil
}

func (n *D20Roll) Signature() core.Signature { return n.sig }
func (n *D20Roll) isNode()                   {}
