package query

import (
	"fmt"
	"math"

	"github.com/yipe/dice-sub000/domain/core"
	"github.com/yipe/dice-sub000/domain/dist"
)

// FirstSuccessSplit decomposes the first success across the ordered events
// into the part whose first success carries one of the subset labels versus
// the part whose first success does not, using a running "no success yet"
// prefix multiplier.
//
// It is an error for any event's subset probability to exceed its success
// probability, or for the two parts plus the final "none" mass to miss unit
// total beyond tolerance.
type SplitResult struct {
	InSubset  float64 // P(first success carries a subset label)
	OutSubset float64 // P(first success occurs, outside the subset)
	None      float64 // P(no event succeeds)
}

// FirstSuccessSplit runs the sequential first-success decomposition.
func (q *Query) FirstSuccessSplit(successLabels, subsetLabels []dist.Label) (SplitResult, error) {
	success, err := q.successProbs(successLabels)
	if err != nil {
		return SplitResult{}, err
	}
	subset, err := q.successProbs(subsetLabels)
	if err != nil {
		return SplitResult{}, err
	}

	var res SplitResult
	noneYet := 1.0
	for i := range q.singles {
		pSuccess, pSubset := success[i], subset[i]
		if pSubset > pSuccess+q.eps {
			return SplitResult{}, core.NewInvariantError(core.ErrSubsetExceedsSuccess,
				q.singles[i].Signature(),
				fmt.Sprintf("event %d: subset %g > success %g", i, pSubset, pSuccess))
		}
		res.InSubset += noneYet * pSubset
		res.OutSubset += noneYet * (pSuccess - pSubset)
		noneYet *= 1 - pSuccess
	}
	res.None = noneYet

	total := res.InSubset + res.OutSubset + res.None
	if math.Abs(total-1) > splitTolerance {
		return SplitResult{}, core.NewInvariantError(core.ErrSplitInvariant, q.combined.Signature(),
			fmt.Sprintf("parts sum to %g", total))
	}
	return res, nil
}

// splitTolerance bounds the accumulated floating error tolerated before the
// decomposition's unit-total check aborts.
const splitTolerance = 1e-9
