package ariadne

import (
	"fmt"
)

// PermissionedCandidate is a governance approved authority with checked keys
type PermissionedCandidate struct {
	AuthorityKey AuthorityKey
	Keys         BlockProductionKeys
}

// ValidatePermissioned checks each key has its exact length and is a valid
// point on its curve. The error wraps the first failing
// RegistrationErrorKind.
func ValidatePermissioned(c CipherSuite, raw RawPermissionedCandidate) (PermissionedCandidate, error) {

	authority, err := ParseAuthorityKey(c, raw.AuthorityKey)
	if err != nil {
		return PermissionedCandidate{}, fmt.Errorf("%w: %v", InvalidSidechainPubKey, err)
	}
	aura, err := ParseAuraKey(raw.AuraKey)
	if err != nil {
		return PermissionedCandidate{}, fmt.Errorf("%w: %v", InvalidAuraKey, err)
	}
	grandpa, err := ParseGrandpaKey(raw.GrandpaKey)
	if err != nil {
		return PermissionedCandidate{}, fmt.Errorf("%w: %v", InvalidGrandpaKey, err)
	}
	return PermissionedCandidate{
		AuthorityKey: authority,
		Keys:         BlockProductionKeys{Aura: aura, Grandpa: grandpa},
	}, nil
}

// FilterPermissioned drops invalid candidates. Order and duplicates are
// preserved.
func FilterPermissioned(c CipherSuite, raws []RawPermissionedCandidate, logger Logger) []PermissionedCandidate {
	logger = orNoop(logger)
	valid := make([]PermissionedCandidate, 0, len(raws))
	for i, raw := range raws {
		p, err := ValidatePermissioned(c, raw)
		if err != nil {
			logger.Debug("ariadne: permissioned candidate rejected", "index", i, "err", err)
			continue
		}
		valid = append(valid, p)
	}
	return valid
}
