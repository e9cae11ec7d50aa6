package ariadne

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// StakePoolKey is the ed25519 verification key of a mainchain stake pool. It
// is the identity of a registered candidate.
type StakePoolKey [StakePoolKeyLength]byte

// AuthorityKey is the compressed secp256k1 public key a candidate uses on the
// sidechain.
type AuthorityKey [AuthorityKeyLength]byte

// AuraKey is the sr25519 (ristretto255) block authoring key
type AuraKey [AuraKeyLength]byte

// GrandpaKey is the ed25519 finality key
type GrandpaKey [GrandpaKeyLength]byte

// BlockProductionKeys are the session keys a committee member produces and
// finalizes blocks with.
type BlockProductionKeys struct {
	Aura    AuraKey
	Grandpa GrandpaKey
}

// PoolID is the blake2b-224 hash of a stake pool key, as the mainchain ledger
// keys stake distribution.
type PoolID [28]byte

// PoolID hashes the stake pool key
func (k StakePoolKey) PoolID() PoolID {
	h, err := blake2b.New(28, nil)
	if err != nil {
		// only fails for sizes outside 1..64 or keys longer than 64 bytes
		panic(err)
	}
	h.Write(k[:])
	id := PoolID{}
	copy(id[:], h.Sum(nil))
	return id
}

// Hex gets the hex string of the key
func (k StakePoolKey) Hex() string { return hex.EncodeToString(k[:]) }

// Hex gets the hex string of the key
func (k AuthorityKey) Hex() string { return hex.EncodeToString(k[:]) }

// Hex gets the hex string of the key
func (k AuraKey) Hex() string { return hex.EncodeToString(k[:]) }

// Hex gets the hex string of the key
func (k GrandpaKey) Hex() string { return hex.EncodeToString(k[:]) }

// Hex gets the hex string of the pool id
func (id PoolID) Hex() string { return hex.EncodeToString(id[:]) }

func (k StakePoolKey) MarshalText() ([]byte, error) { return []byte(k.Hex()), nil }
func (k *StakePoolKey) UnmarshalText(b []byte) error { return decodeFixedHex(k[:], string(b)) }

func (k AuthorityKey) MarshalText() ([]byte, error) { return []byte(k.Hex()), nil }
func (k *AuthorityKey) UnmarshalText(b []byte) error { return decodeFixedHex(k[:], string(b)) }

// StakePoolKeyFromBytes requires exactly 32 bytes
func StakePoolKeyFromBytes(b []byte) (StakePoolKey, error) {
	k := StakePoolKey{}
	if len(b) != len(k) {
		return k, fmt.Errorf("stake pool key must be %d bytes not %d", len(k), len(b))
	}
	copy(k[:], b)
	return k, nil
}

func (k BlockProductionKeys) String() string {
	return fmt.Sprintf("aura=%s grandpa=%s", fmtAddrex(k.Aura.Hex(), 6, 4), fmtAddrex(k.Grandpa.Hex(), 6, 4))
}
