package dist

// Bin carries the probability mass attached to one outcome value, along with
// per-category bookkeeping.
//
// Count maps a category label to the portion of P attributable to it; the sum
// over labels may leave unlabeled leftover mass. Attr maps a label to the
// damage contributed by that category at this outcome. Post-compaction,
// Count and Attr entries are never negative.
type Bin struct {
	P     float64
	Count map[Label]float64
	Attr  map[Label]float64
}

// clone deep-copies the bin so callers can hand it out without exposing the
// distribution's internal maps.
func (b Bin) clone() Bin {
	out := Bin{P: b.P}
	if len(b.Count) > 0 {
		out.Count = make(map[Label]float64, len(b.Count))
		for l, c := range b.Count {
			out.Count[l] = c
		}
	}
	if len(b.Attr) > 0 {
		out.Attr = make(map[Label]float64, len(b.Attr))
		for l, a := range b.Attr {
			out.Attr[l] = a
		}
	}
	return out
}

// Unlabeled reports whether the bin carries no category bookkeeping.
func (b Bin) Unlabeled() bool {
	return len(b.Count) == 0 && len(b.Attr) == 0
}

// Leftover returns the probability mass not attributed to any category.
func (b Bin) Leftover() float64 {
	left := b.P
	for _, c := range b.Count {
		left -= c
	}
	return left
}
