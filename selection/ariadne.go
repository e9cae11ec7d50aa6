package selection

import (
	"sort"

	"github.com/holiman/uint256"
)

// SelectMerged is the original Ariadne allocation. Both pools are merged into
// one weighted list and numPermissioned+numRegistered seats are drawn by
// WeightedRandom. Registered weights are scaled by R*|P| and each permissioned
// candidate weighs P times the total registered stake, so the expected seat
// split follows the D parameter. If either pool is empty the other is drawn
// with its unmodified weights. less orders candidates so that the merged list
// does not depend on input order.
func SelectMerged[T any](
	numPermissioned, numRegistered uint16, registered []Weighted[T], permissioned []T,
	seed [32]byte, less func(a, b T) bool,
) ([]T, bool) {

	totalStake, err := totalWeight(registered)
	if err != nil {
		return nil, false
	}

	factor := uint256.NewInt(1)
	if len(permissioned) > 0 {
		factor.SetUint64(uint64(numRegistered) * uint64(len(permissioned)))
	}

	merged := make([]Weighted[T], 0, len(registered)+len(permissioned))
	for _, c := range registered {
		w := c.Weight
		w.Mul(&w, factor)
		merged = append(merged, Weighted[T]{Candidate: c.Candidate, Weight: w})
	}

	pw := NewWeight(1)
	if !totalStake.IsZero() && numRegistered > 0 {
		pw.Mul(uint256.NewInt(uint64(numPermissioned)), &totalStake)
	}
	for _, c := range permissioned {
		merged = append(merged, Weighted[T]{Candidate: c, Weight: pw})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if less(a.Candidate, b.Candidate) {
			return true
		}
		if less(b.Candidate, a.Candidate) {
			return false
		}
		return a.Weight.Lt(&b.Weight)
	})

	return WeightedRandom(merged, seed, int(numPermissioned)+int(numRegistered))
}
