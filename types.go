package ariadne

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	TxHashLength       = 32
	PolicyIDLength     = 28
	StakePoolKeyLength = 32
	AuthorityKeyLength = 33
	AuraKeyLength      = 32
	GrandpaKeyLength   = 32
	SignatureLength    = 64
	EpochNonceLength   = 32
)

var (
	ErrBadUtxoID    = errors.New("utxo id must be <64 hex chars>#<index>")
	ErrBadHexLength = errors.New("value has the wrong length")
	ErrNonceTooLong = errors.New("epoch nonce longer than 32 bytes")
)

// TxHash is a mainchain transaction id
type TxHash [TxHashLength]byte

// UtxoID identifies a transaction output on the mainchain.
type UtxoID struct {
	TxHash TxHash
	Index  uint16
}

func (u UtxoID) String() string {
	return hex.EncodeToString(u.TxHash[:]) + "#" + strconv.Itoa(int(u.Index))
}

// ParseUtxoID reads the "txhash#index" form
func ParseUtxoID(s string) (UtxoID, error) {
	parts := strings.Split(s, "#")
	if len(parts) != 2 {
		return UtxoID{}, ErrBadUtxoID
	}
	u := UtxoID{}
	if err := decodeFixedHex(u.TxHash[:], parts[0]); err != nil {
		return UtxoID{}, fmt.Errorf("%w: %v", ErrBadUtxoID, err)
	}
	i, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return UtxoID{}, fmt.Errorf("%w: %v", ErrBadUtxoID, err)
	}
	u.Index = uint16(i)
	return u, nil
}

func (u UtxoID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *UtxoID) UnmarshalText(b []byte) error {
	v, err := ParseUtxoID(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// UtxoInfo places a utxo on the mainchain
type UtxoInfo struct {
	UtxoID             UtxoID
	EpochNumber        uint32
	BlockNumber        uint32
	SlotNumber         uint64
	TxIndexWithinBlock uint32
}

// OrderingKey sorts registrations chronologically: by block, then by
// transaction position within the block, then by output index.
type OrderingKey struct {
	BlockNumber uint32
	TxIndex     uint32
	OutputIndex uint16
}

func (u UtxoInfo) OrderingKey() OrderingKey {
	return OrderingKey{
		BlockNumber: u.BlockNumber, TxIndex: u.TxIndexWithinBlock, OutputIndex: u.UtxoID.Index}
}

// Less is true if k was made on chain before o
func (k OrderingKey) Less(o OrderingKey) bool {
	if k.BlockNumber != o.BlockNumber {
		return k.BlockNumber < o.BlockNumber
	}
	if k.TxIndex != o.TxIndex {
		return k.TxIndex < o.TxIndex
	}
	return k.OutputIndex < o.OutputIndex
}

// HexBytes is a byte slice that reads and writes as hex text. A 0x prefix is
// accepted.
type HexBytes []byte

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *HexBytes) UnmarshalText(text []byte) error {
	v, err := hex.DecodeString(strings.TrimPrefix(string(text), "0x"))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// PolicyID is the hash of a mainchain minting policy script
type PolicyID [PolicyIDLength]byte

func (p PolicyID) Hex() string {
	return hex.EncodeToString(p[:])
}

func (p PolicyID) MarshalText() ([]byte, error) {
	return []byte(p.Hex()), nil
}

func (p *PolicyID) UnmarshalText(text []byte) error {
	return decodeFixedHex(p[:], string(text))
}

// MainchainAddress is a bech32 mainchain address
type MainchainAddress string

// DParameter splits the committee seats between the two candidate pools.
type DParameter struct {
	NumPermissionedSeats uint16
	NumRegisteredSeats   uint16
}

// Seats is the committee size
func (d DParameter) Seats() int {
	return int(d.NumPermissionedSeats) + int(d.NumRegisteredSeats)
}

// RawPermissionedCandidate is a permissioned candidate as published. None of
// the keys have been checked.
type RawPermissionedCandidate struct {
	AuthorityKey []byte
	AuraKey      []byte
	GrandpaKey   []byte
}

// RegistrationData is a single registration attempt for a stake pool.
type RegistrationData struct {
	// ConsumedUtxo is the utxo the registration transaction spends. It is
	// part of the signed message, which prevents replay of old signatures.
	ConsumedUtxo       UtxoID
	SidechainSignature []byte
	MainchainSignature []byte
	AuthorityKey       []byte
	AuraKey            []byte
	GrandpaKey         []byte
	// UtxoInfo locates the output holding the registration datum.
	UtxoInfo UtxoInfo
	TxInputs []UtxoID
}

// StakeDelegation is the stake, in lovelace, delegated to a pool
type StakeDelegation uint64

// CandidateRegistrations groups every registration attempt observed for one
// stake pool in a settlement epoch.
type CandidateRegistrations struct {
	StakePoolKey  StakePoolKey
	Registrations []RegistrationData
	// Stake is the delegated stake for the pool, nil when unknown.
	Stake *StakeDelegation
}

// EpochNonce is the mainchain epoch randomness
type EpochNonce []byte

// Canonical right pads n with zeros to 32 bytes
func (n EpochNonce) Canonical() ([EpochNonceLength]byte, error) {
	var a [EpochNonceLength]byte
	if len(n) > EpochNonceLength {
		return a, fmt.Errorf("%w: have %d bytes", ErrNonceTooLong, len(n))
	}
	copy(a[:], n)
	return a, nil
}

func (n EpochNonce) Hex() string {
	return hex.EncodeToString(n)
}

// AriadneParameters is the governance state read for an epoch: the D
// parameter and the permissioned candidate list.
type AriadneParameters struct {
	DParameter DParameter
	// HavePermissioned is false when no permissioned candidate list has been
	// published at all. An empty published list is not the same thing.
	HavePermissioned bool
	Permissioned     []RawPermissionedCandidate
}

func decodeFixedHex(dst []byte, s string) error {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrBadHexLength, len(b), len(dst))
	}
	copy(dst, b)
	return nil
}
