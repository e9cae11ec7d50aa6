package selection

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrWeightOverflow = errors.New("total candidate weight exceeds 128 bits")

	maxWeight = uint256.Int{^uint64(0), ^uint64(0), 0, 0}
)

// Weighted pairs a candidate with its selection weight. Weights are 128 bit
// unsigned integers.
type Weighted[T any] struct {
	Candidate T
	Weight    uint256.Int
}

// NewWeight converts a stake, or any other 64 bit quantity, to a weight
func NewWeight(w uint64) uint256.Int {
	return uint256.Int{w, 0, 0, 0}
}

func totalWeight[T any](candidates []Weighted[T]) (uint256.Int, error) {
	var total uint256.Int
	for i := range candidates {
		total.Add(&total, &candidates[i].Weight)
		if total.Gt(&maxWeight) {
			return uint256.Int{}, ErrWeightOverflow
		}
	}
	return total, nil
}

// WeightedRandom draws n candidates independently, with replacement, with
// probability proportional to weight. ok is false if n candidates could not
// be drawn: there are no candidates, or all weights are zero, or the total
// weight overflows.
func WeightedRandom[T any](candidates []Weighted[T], seed [32]byte, n int) ([]T, bool) {
	return weightedRandom(NewChaCha(seed), candidates, n)
}

func weightedRandom[T any](r DRNG, candidates []Weighted[T], n int) ([]T, bool) {
	if n < 0 {
		return nil, false
	}

	total, err := totalWeight(candidates)
	if err != nil {
		return nil, false
	}

	selected := make([]T, 0, n)
	for len(selected) < n && len(candidates) > 0 && !total.IsZero() {
		draw := genRangeU128(r, &total)
		selected = append(selected, candidates[pickCumulative(candidates, &draw)].Candidate)
	}
	if len(selected) < n {
		return nil, false
	}
	return selected, true
}

// pickCumulative returns the first index whose cumulative weight exceeds
// draw. draw must be less than the total weight.
func pickCumulative[T any](candidates []Weighted[T], draw *uint256.Int) int {
	var cumulative uint256.Int
	for i := range candidates {
		cumulative.Add(&cumulative, &candidates[i].Weight)
		if cumulative.Gt(draw) {
			return i
		}
	}
	panic("selection: draw exceeds total weight")
}
