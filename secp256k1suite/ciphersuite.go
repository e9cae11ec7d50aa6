// Package secp256k1suite implements the sidechain signature scheme: ECDSA
// over secp256k1 with blake2b-256 message digests and 33 byte compressed
// public keys.
package secp256k1suite

import (
	"crypto/ecdsa"
)

// There are a number of candidate secp256k1 sources
// * github.com/btcsuite/btcd/btcec ICS (pure go, no cgo)
// * github.com/ethereum/go-ethereum/crypto/secp256k1 BSD 3 clause (cgo)
// * https://github.com/bitcoin-core/secp256k1 MIT
//
// We only need verification of [R || S] signatures and the occasional signing
// for tools and tests, so btcec is sufficient.

// CipherSuite mirrors ariadne.CipherSuite so that this package does not
// depend on the root package.
type CipherSuite interface {
	// Blake2b256 returns a digest suitable for Sign.
	Blake2b256(b ...[]byte) []byte

	// Sign is given a digest to sign. The result is [R || S]
	Sign(digest []byte, key *ecdsa.PrivateKey) ([]byte, error)

	// VerifySignature verifies a 64 byte [R || S] signature against a 33 byte
	// compressed public key.
	VerifySignature(pub, digest, sig []byte) bool

	// ValidatePublicKey checks pub is a compressed point on the curve
	ValidatePublicKey(pub []byte) error
}
