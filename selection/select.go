// Package selection allocates committee seats. Every algorithm is a pure
// function of its inputs and a 32 byte seed; the same inputs always give the
// same ordered committee.
package selection

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPool        = errors.New("a pool with seats has no candidates")
	ErrNoSelection      = errors.New("seats could not be allocated")
	ErrUnknownAlgorithm = errors.New("unknown selection algorithm")
)

// Algorithm chooses how the two pools share the committee
type Algorithm int

const (
	// AlgorithmV2 allocates each pool its own seats by guaranteed assignment
	// and shuffles the result.
	AlgorithmV2 Algorithm = iota
	// AlgorithmV1 merges the pools into one weighted draw
	AlgorithmV1
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmV1:
		return "v1"
	case AlgorithmV2:
		return "v2"
	default:
		return "<unknown>"
	}
}

// ParseAlgorithm accepts "v1" or "v2"
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v1":
		return AlgorithmV1, nil
	case "v2", "":
		return AlgorithmV2, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

func (a Algorithm) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Algorithm) UnmarshalText(b []byte) error {
	v, err := ParseAlgorithm(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Policy configures Select
type Policy struct {
	Algorithm Algorithm
	// FillEmptyPool gives every seat to the other pool when a pool that has
	// seats has no candidates. By default that is an error.
	FillEmptyPool bool
}

// Select allocates numPermissioned+numRegistered seats. The result has exactly
// that many entries or an error is returned. Zero seats is an empty committee.
// less is only consulted by AlgorithmV1.
func Select[T any](
	p Policy, numPermissioned, numRegistered uint16, registered []Weighted[T], permissioned []T,
	seed [32]byte, less func(a, b T) bool,
) ([]T, error) {

	seats := int(numPermissioned) + int(numRegistered)
	if seats == 0 {
		return []T{}, nil
	}

	if !p.FillEmptyPool {
		if numRegistered > 0 && len(registered) == 0 {
			return nil, fmt.Errorf("%w: %d registered seats", ErrEmptyPool, numRegistered)
		}
		if numPermissioned > 0 && len(permissioned) == 0 {
			return nil, fmt.Errorf("%w: %d permissioned seats", ErrEmptyPool, numPermissioned)
		}
	}

	var selected []T
	var ok bool
	switch p.Algorithm {
	case AlgorithmV1:
		selected, ok = SelectMerged(numPermissioned, numRegistered, registered, permissioned, seed, less)
	case AlgorithmV2:
		selected, ok = SelectGuaranteed(numPermissioned, numRegistered, registered, permissioned, seed)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, p.Algorithm)
	}
	if !ok || len(selected) != seats {
		return nil, fmt.Errorf("%w: have %d of %d", ErrNoSelection, len(selected), seats)
	}
	return selected, nil
}

// SelectGuaranteed is the v2 allocation. When both pools have candidates the
// registered pool gets numRegistered seats and the permissioned pool, with
// unit weights, gets numPermissioned. Otherwise the non-empty pool gets every
// seat. The concatenation, registered first, is shuffled. ok is false if
// nothing could be selected for a non-empty committee.
func SelectGuaranteed[T any](
	numPermissioned, numRegistered uint16, registered []Weighted[T], permissioned []T, seed [32]byte,
) ([]T, bool) {

	seats := int(numPermissioned) + int(numRegistered)
	r := NewChaCha(seed)

	unit := make([]Weighted[T], len(permissioned))
	for i, c := range permissioned {
		unit[i] = Weighted[T]{Candidate: c, Weight: NewWeight(1)}
	}

	var selected []T
	switch {
	case len(registered) > 0 && len(unit) > 0:
		selected = WeightedWithGuaranteedAssignment(r, registered, int(numRegistered))
		selected = append(selected, WeightedWithGuaranteedAssignment(r, unit, int(numPermissioned))...)
	case len(registered) == 0:
		selected = WeightedWithGuaranteedAssignment(r, unit, seats)
	default:
		selected = WeightedWithGuaranteedAssignment(r, registered, seats)
	}

	Shuffle[T](r, selected)

	if len(selected) == 0 && seats > 0 {
		return nil, false
	}
	return selected, true
}
