package ariadne

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// RegistrationErrorKind names one reason a registration attempt, or the stake
// behind it, is not acceptable. Kinds are errors so that errors.Is works
// against a *RegistrationError.
type RegistrationErrorKind int

const (
	InvalidMainchainSignature RegistrationErrorKind = iota + 1
	InvalidSidechainSignature
	InvalidTxInput
	InvalidMainchainPubKey
	InvalidSidechainPubKey
	InvalidAuraKey
	InvalidGrandpaKey
	UnknownStake
	InvalidStake
)

func (k RegistrationErrorKind) Error() string {
	return "registration invalid: " + k.String()
}

// RegistrationError collects every check a single attempt failed
type RegistrationError struct {
	Utxo  UtxoID
	Kinds []RegistrationErrorKind
}

func (e *RegistrationError) Error() string {
	names := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		names[i] = k.String()
	}
	return fmt.Sprintf("registration %s invalid: %s", e.Utxo, strings.Join(names, ", "))
}

// Is matches any of the collected kinds
func (e *RegistrationError) Is(target error) bool {
	k, ok := target.(RegistrationErrorKind)
	if !ok {
		return false
	}
	for _, have := range e.Kinds {
		if have == k {
			return true
		}
	}
	return false
}

// RegisteredCandidate is the resolved, valid registration of one stake pool
type RegisteredCandidate struct {
	StakePoolKey StakePoolKey
	AuthorityKey AuthorityKey
	Keys         BlockProductionKeys
	Stake        StakeDelegation
	// UtxoInfo locates the active registration
	UtxoInfo UtxoInfo
}

// RegistrationValidator checks registrations against the chain identity they
// must be bound to.
type RegistrationValidator struct {
	suite   CipherSuite
	genesis UtxoID
	logger  Logger
}

func NewRegistrationValidator(c CipherSuite, genesis UtxoID, logger Logger) *RegistrationValidator {
	return &RegistrationValidator{suite: c, genesis: genesis, logger: orNoop(logger)}
}

// ValidateStake requires a known, non zero stake
func ValidateStake(stake *StakeDelegation) (StakeDelegation, error) {
	if stake == nil {
		return 0, UnknownStake
	}
	if *stake == 0 {
		return 0, InvalidStake
	}
	return *stake, nil
}

// ValidateRegistrationData checks a single attempt. All failing checks are
// reported in the returned *RegistrationError.
func (v *RegistrationValidator) ValidateRegistrationData(
	pool StakePoolKey, r *RegistrationData) (AuthorityKey, BlockProductionKeys, error) {

	var kinds []RegistrationErrorKind

	aura, err := ParseAuraKey(r.AuraKey)
	if err != nil {
		kinds = append(kinds, InvalidAuraKey)
	}
	grandpa, err := ParseGrandpaKey(r.GrandpaKey)
	if err != nil {
		kinds = append(kinds, InvalidGrandpaKey)
	}

	authority, err := ParseAuthorityKey(v.suite, r.AuthorityKey)
	authorityOK := err == nil
	if !authorityOK {
		kinds = append(kinds, InvalidSidechainPubKey)
	}

	msg := RegistrationMessage{
		Genesis: v.genesis, AuthorityKey: r.AuthorityKey, ConsumedUtxo: r.ConsumedUtxo}.Encode()

	if err := ValidateStakePoolKey(pool); err != nil {
		kinds = append(kinds, InvalidMainchainPubKey)
	} else if !VerifyStakePoolSig(pool, msg, r.MainchainSignature) {
		kinds = append(kinds, InvalidMainchainSignature)
	}

	if !authorityOK || !VerifyAuthoritySig(v.suite, r.AuthorityKey, msg, r.SidechainSignature) {
		kinds = append(kinds, InvalidSidechainSignature)
	}

	if !containsUtxo(r.TxInputs, r.ConsumedUtxo) {
		kinds = append(kinds, InvalidTxInput)
	}

	if len(kinds) > 0 {
		return AuthorityKey{}, BlockProductionKeys{}, &RegistrationError{Utxo: r.UtxoInfo.UtxoID, Kinds: kinds}
	}
	return authority, BlockProductionKeys{Aura: aura, Grandpa: grandpa}, nil
}

// Validate resolves the registrations of a single stake pool. The attempt
// with the greatest ordering key among the valid ones is active. Earlier
// valid attempts are superseded and invalid attempts are ignored. Nothing is
// returned if the stake is unknown or zero, or if there is no valid attempt.
func (v *RegistrationValidator) Validate(raw CandidateRegistrations) (RegisteredCandidate, bool) {

	stake, err := ValidateStake(raw.Stake)
	if err != nil {
		v.logger.Debug("ariadne: candidate excluded",
			"pool", raw.StakePoolKey.HexShort(), "err", err)
		return RegisteredCandidate{}, false
	}

	var active *RegisteredCandidate
	for i := range raw.Registrations {
		r := &raw.Registrations[i]
		authority, keys, err := v.ValidateRegistrationData(raw.StakePoolKey, r)
		if err != nil {
			v.logger.Debug("ariadne: registration rejected",
				"pool", raw.StakePoolKey.HexShort(), "utxo", r.UtxoInfo.UtxoID, "err", err)
			continue
		}
		if active != nil && !active.UtxoInfo.OrderingKey().Less(r.UtxoInfo.OrderingKey()) {
			continue
		}
		active = &RegisteredCandidate{
			StakePoolKey: raw.StakePoolKey,
			AuthorityKey: authority,
			Keys:         keys,
			Stake:        stake,
			UtxoInfo:     r.UtxoInfo,
		}
	}
	if active == nil {
		v.logger.Debug("ariadne: no valid registration", "pool", raw.StakePoolKey.HexShort(),
			"attempts", len(raw.Registrations))
		return RegisteredCandidate{}, false
	}
	return *active, true
}

// FilterRegistered validates every pool, preserving the input order
func (v *RegistrationValidator) FilterRegistered(raws []CandidateRegistrations) []RegisteredCandidate {
	valid := make([]RegisteredCandidate, 0, len(raws))
	for _, raw := range raws {
		if c, ok := v.Validate(raw); ok {
			valid = append(valid, c)
		}
	}
	return valid
}

// sortRegistrations orders attempts chronologically
func sortRegistrations(rs []RegistrationData) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].UtxoInfo.OrderingKey().Less(rs[j].UtxoInfo.OrderingKey())
	})
}

func containsUtxo(us []UtxoID, u UtxoID) bool {
	for _, x := range us {
		if x == u {
			return true
		}
	}
	return false
}

// IsRegistrationError is true if err carries any registration error kind
func IsRegistrationError(err error) bool {
	var re *RegistrationError
	var k RegistrationErrorKind
	return errors.As(err, &re) || errors.As(err, &k)
}
