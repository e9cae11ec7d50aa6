package ariadne

import (
	"errors"
	"fmt"

	"github.com/RobustRoundRobin/go-ariadne/plutus"
)

var (
	ErrUnknownDatumVersion = errors.New("unknown datum version")
)

// MainchainAddressHashLength is the size of a payment key hash
const MainchainAddressHashLength = 28

// RegisterValidatorDatum is the datum of a registration utxo
type RegisterValidatorDatum struct {
	StakePoolKey       StakePoolKey
	MainchainSignature []byte
	AuthorityKey       []byte
	SidechainSignature []byte
	ConsumedUtxo       UtxoID
	OwnPkh             [MainchainAddressHashLength]byte
	AuraKey            []byte
	GrandpaKey         []byte
}

// RegistrationData combines the datum with where it was found on chain
func (d *RegisterValidatorDatum) RegistrationData(info UtxoInfo, txInputs []UtxoID) RegistrationData {
	return RegistrationData{
		ConsumedUtxo:       d.ConsumedUtxo,
		SidechainSignature: d.SidechainSignature,
		MainchainSignature: d.MainchainSignature,
		AuthorityKey:       d.AuthorityKey,
		AuraKey:            d.AuraKey,
		GrandpaKey:         d.GrandpaKey,
		UtxoInfo:           info,
		TxInputs:           txInputs,
	}
}

// ToDatum encodes d in the legacy layout
func (d *RegisterValidatorDatum) ToDatum() plutus.Data {
	return plutus.NewConstr(0,
		plutus.NewConstr(0, plutus.Bytes(d.StakePoolKey[:]), plutus.Bytes(d.MainchainSignature)),
		plutus.Bytes(d.AuthorityKey),
		plutus.Bytes(d.SidechainSignature),
		UtxoDatum(d.ConsumedUtxo),
		plutus.Bytes(d.OwnPkh[:]),
		plutus.Bytes(d.AuraKey),
		plutus.Bytes(d.GrandpaKey))
}

// DecodeRegisterValidatorDatum reads either datum layout
func DecodeRegisterValidatorDatum(d plutus.Data) (*RegisterValidatorDatum, error) {
	switch s := plutus.ParseSchema(d).(type) {
	case plutus.Legacy:
		fields, err := plutus.AsConstr(s.Data, 0, 7)
		if err != nil {
			return nil, err
		}
		r := &RegisterValidatorDatum{}
		if err := copyFixed(r.OwnPkh[:], fields[4]); err != nil {
			return nil, fmt.Errorf("own pkh: %w", err)
		}
		if err := r.decodeFields(fields[0], fields[1], fields[2], fields[3], fields[5], fields[6]); err != nil {
			return nil, err
		}
		return r, nil

	case plutus.Versioned:
		if s.Version != 0 {
			return nil, fmt.Errorf("%w: registration v%d", ErrUnknownDatumVersion, s.Version)
		}
		r := &RegisterValidatorDatum{}
		if err := copyFixed(r.OwnPkh[:], s.Datum); err != nil {
			return nil, fmt.Errorf("own pkh: %w", err)
		}
		fields, err := plutus.AsConstr(s.Appendix, 0, 6)
		if err != nil {
			return nil, err
		}
		if err := r.decodeFields(fields[0], fields[1], fields[2], fields[3], fields[4], fields[5]); err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, plutus.ErrUnexpectedShape
}

func (d *RegisterValidatorDatum) decodeFields(ownership, scKey, scSig, consumed, aura, grandpa plutus.Data) error {
	owner, err := plutus.AsConstr(ownership, 0, 2)
	if err != nil {
		return fmt.Errorf("stake ownership: %w", err)
	}
	if err = copyFixed(d.StakePoolKey[:], owner[0]); err != nil {
		return fmt.Errorf("stake pool key: %w", err)
	}
	if d.MainchainSignature, err = plutus.AsBytes(owner[1]); err != nil {
		return fmt.Errorf("mainchain signature: %w", err)
	}
	if d.AuthorityKey, err = plutus.AsBytes(scKey); err != nil {
		return fmt.Errorf("sidechain key: %w", err)
	}
	if d.SidechainSignature, err = plutus.AsBytes(scSig); err != nil {
		return fmt.Errorf("sidechain signature: %w", err)
	}
	if d.ConsumedUtxo, err = DecodeUtxoDatum(consumed); err != nil {
		return fmt.Errorf("consumed input: %w", err)
	}
	if d.AuraKey, err = plutus.AsBytes(aura); err != nil {
		return fmt.Errorf("aura key: %w", err)
	}
	if d.GrandpaKey, err = plutus.AsBytes(grandpa); err != nil {
		return fmt.Errorf("grandpa key: %w", err)
	}
	return nil
}

// DecodeUtxoDatum reads Constr0[Constr0[tx hash], index]
func DecodeUtxoDatum(d plutus.Data) (UtxoID, error) {
	u := UtxoID{}
	fields, err := plutus.AsConstr(d, 0, 2)
	if err != nil {
		return u, err
	}
	txh, err := plutus.AsConstr(fields[0], 0, 1)
	if err != nil {
		return u, err
	}
	if err := copyFixed(u.TxHash[:], txh[0]); err != nil {
		return u, err
	}
	if u.Index, err = plutus.AsUint16(fields[1]); err != nil {
		return u, err
	}
	return u, nil
}

// DecodeDParameterDatum reads [P, R] or Constr0[P, R], or the versioned
// layout with [P, R] as the appendix.
func DecodeDParameterDatum(d plutus.Data) (DParameter, error) {
	switch s := plutus.ParseSchema(d).(type) {
	case plutus.Legacy:
		return decodeDParameterPair(s.Data)
	case plutus.Versioned:
		if s.Version != 0 {
			return DParameter{}, fmt.Errorf("%w: d parameter v%d", ErrUnknownDatumVersion, s.Version)
		}
		return decodeDParameterPair(s.Appendix)
	}
	return DParameter{}, plutus.ErrUnexpectedShape
}

// ToDatum encodes d in the legacy list layout
func (d DParameter) ToDatum() plutus.Data {
	return plutus.List{plutus.NewUint(uint64(d.NumPermissionedSeats)), plutus.NewUint(uint64(d.NumRegisteredSeats))}
}

func decodeDParameterPair(d plutus.Data) (DParameter, error) {
	var items []plutus.Data
	if c, ok := d.(plutus.Constr); ok {
		if c.Alt != 0 {
			return DParameter{}, fmt.Errorf("%w: d parameter constructor %d", plutus.ErrUnexpectedShape, c.Alt)
		}
		items = c.Fields
	} else {
		var err error
		if items, err = plutus.AsList(d); err != nil {
			return DParameter{}, err
		}
	}
	if len(items) < 2 {
		return DParameter{}, fmt.Errorf("%w: d parameter has %d items", plutus.ErrUnexpectedShape, len(items))
	}
	p, err := plutus.AsUint16(items[0])
	if err != nil {
		return DParameter{}, fmt.Errorf("permissioned seats: %w", err)
	}
	r, err := plutus.AsUint16(items[1])
	if err != nil {
		return DParameter{}, fmt.Errorf("registered seats: %w", err)
	}
	return DParameter{NumPermissionedSeats: p, NumRegisteredSeats: r}, nil
}

// DecodePermissionedDatum reads a list of [authority, aura, grandpa] keys,
// either bare or as the appendix of a versioned datum.
func DecodePermissionedDatum(d plutus.Data) ([]RawPermissionedCandidate, error) {
	switch s := plutus.ParseSchema(d).(type) {
	case plutus.Legacy:
		return decodePermissionedList(s.Data)
	case plutus.Versioned:
		if s.Version != 0 {
			return nil, fmt.Errorf("%w: permissioned candidates v%d", ErrUnknownDatumVersion, s.Version)
		}
		return decodePermissionedList(s.Appendix)
	}
	return nil, plutus.ErrUnexpectedShape
}

// PermissionedDatum encodes candidates in the legacy list layout
func PermissionedDatum(candidates []RawPermissionedCandidate) plutus.Data {
	l := make(plutus.List, len(candidates))
	for i, c := range candidates {
		l[i] = plutus.List{plutus.Bytes(c.AuthorityKey), plutus.Bytes(c.AuraKey), plutus.Bytes(c.GrandpaKey)}
	}
	return l
}

func decodePermissionedList(d plutus.Data) ([]RawPermissionedCandidate, error) {
	items, err := plutus.AsList(d)
	if err != nil {
		return nil, err
	}
	candidates := make([]RawPermissionedCandidate, 0, len(items))
	for i, item := range items {
		keys, err := plutus.AsList(item)
		if err != nil {
			return nil, fmt.Errorf("permissioned candidate %d: %w", i, err)
		}
		if len(keys) < 3 {
			return nil, fmt.Errorf("%w: permissioned candidate %d has %d keys", plutus.ErrUnexpectedShape, i, len(keys))
		}
		c := RawPermissionedCandidate{}
		if c.AuthorityKey, err = plutus.AsBytes(keys[0]); err != nil {
			return nil, fmt.Errorf("permissioned candidate %d: %w", i, err)
		}
		if c.AuraKey, err = plutus.AsBytes(keys[1]); err != nil {
			return nil, fmt.Errorf("permissioned candidate %d: %w", i, err)
		}
		if c.GrandpaKey, err = plutus.AsBytes(keys[2]); err != nil {
			return nil, fmt.Errorf("permissioned candidate %d: %w", i, err)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func copyFixed(dst []byte, d plutus.Data) error {
	b, err := plutus.AsBytes(d)
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrBadHexLength, len(b), len(dst))
	}
	copy(dst, b)
	return nil
}
