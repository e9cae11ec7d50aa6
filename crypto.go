package ariadne

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/gtank/ristretto255"
)

var (
	ErrBadKeyLength = errors.New("key has the wrong length")
)

// CipherSuite exists principally to avoid a dependency on a particular
// secp256k1 implementation. See the secp256k1suite package.
// Notice: This is assumed to be EC secp256k1 + blake2b-256
type CipherSuite interface {
	// Blake2b256 returns a digest suitable for Sign.
	Blake2b256(b ...[]byte) []byte

	// Sign is given a digest to sign. The result is [R || S]
	Sign(digest []byte, key *ecdsa.PrivateKey) ([]byte, error)

	// VerifySignature verifies a 64 byte [R || S] signature. pub is the 33
	// byte compressed public key
	VerifySignature(pub, digest, sig []byte) bool

	// ValidatePublicKey checks pub is a compressed point on the curve
	ValidatePublicKey(pub []byte) error
}

// ParseAuthorityKey checks b is a valid compressed secp256k1 point
func ParseAuthorityKey(c CipherSuite, b []byte) (AuthorityKey, error) {
	k := AuthorityKey{}
	if len(b) != len(k) {
		return k, fmt.Errorf("%w: authority key %d bytes", ErrBadKeyLength, len(b))
	}
	if err := c.ValidatePublicKey(b); err != nil {
		return k, err
	}
	copy(k[:], b)
	return k, nil
}

// ParseAuraKey checks b is a canonical ristretto255 (sr25519) encoding
func ParseAuraKey(b []byte) (AuraKey, error) {
	k := AuraKey{}
	if len(b) != len(k) {
		return k, fmt.Errorf("%w: aura key %d bytes", ErrBadKeyLength, len(b))
	}
	if err := ristretto255.NewElement().Decode(b); err != nil {
		return k, err
	}
	copy(k[:], b)
	return k, nil
}

// ParseGrandpaKey checks b is a valid ed25519 point encoding
func ParseGrandpaKey(b []byte) (GrandpaKey, error) {
	k := GrandpaKey{}
	if len(b) != len(k) {
		return k, fmt.Errorf("%w: grandpa key %d bytes", ErrBadKeyLength, len(b))
	}
	if _, err := new(edwards25519.Point).SetBytes(b); err != nil {
		return k, err
	}
	copy(k[:], b)
	return k, nil
}

// ParseBlockProductionKeys checks both session keys
func ParseBlockProductionKeys(aura, grandpa []byte) (BlockProductionKeys, error) {
	a, err := ParseAuraKey(aura)
	if err != nil {
		return BlockProductionKeys{}, err
	}
	g, err := ParseGrandpaKey(grandpa)
	if err != nil {
		return BlockProductionKeys{}, err
	}
	return BlockProductionKeys{Aura: a, Grandpa: g}, nil
}

// ValidateStakePoolKey checks the pool key is an ed25519 point
func ValidateStakePoolKey(pool StakePoolKey) error {
	_, err := new(edwards25519.Point).SetBytes(pool[:])
	return err
}

// VerifyStakePoolSig verifies the 64 byte ed25519 signature of the stake pool
// over msg. The message is signed directly, not a digest of it.
func VerifyStakePoolSig(pool StakePoolKey, msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	if ValidateStakePoolKey(pool) != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pool[:]), msg, sig)
}

// VerifyAuthoritySig verifies the sidechain signature over the blake2b-256
// digest of msg.
func VerifyAuthoritySig(c CipherSuite, pub []byte, msg, sig []byte) bool {
	return c.VerifySignature(pub, c.Blake2b256(msg), sig)
}
