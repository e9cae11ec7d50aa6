package selection

import (
	"github.com/holiman/uint256"
)

// WeightedWithGuaranteedAssignment allocates n seats. A candidate with weight
// w out of a total W is guaranteed floor(w*n/W) seats. The seats left over
// are drawn by WeightedRandom over the fractional remainders, using a
// generator freshly keyed with the seed of r. Zero weight candidates get
// nothing.
func WeightedWithGuaranteedAssignment[T any](r *ChaCha, candidates []Weighted[T], n int) []T {
	if len(candidates) == 0 || n <= 0 {
		return nil
	}

	selected, remaining, err := selectGuaranteed(candidates, n)
	if err != nil {
		return nil
	}

	rest, ok := WeightedRandom(remaining, r.Seed(), n-len(selected))
	if !ok {
		return selected
	}
	return append(selected, rest...)
}

func selectGuaranteed[T any](candidates []Weighted[T], n int) ([]T, []Weighted[T], error) {

	threshold, err := totalWeight(candidates)
	if err != nil {
		return nil, nil, err
	}

	scale := uint256.NewInt(uint64(n))

	selected := make([]T, 0, n)
	remaining := make([]Weighted[T], 0, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		if c.Weight.IsZero() {
			continue
		}

		var scaled, guaranteed, remainder uint256.Int
		scaled.Mul(&c.Weight, scale)
		guaranteed.DivMod(&scaled, &threshold, &remainder)

		// guaranteed <= n
		for j := uint64(0); j < guaranteed.Uint64(); j++ {
			selected = append(selected, c.Candidate)
		}
		if !remainder.IsZero() {
			remaining = append(remaining, Weighted[T]{Candidate: c.Candidate, Weight: remainder})
		}
	}
	return selected, remaining, nil
}
