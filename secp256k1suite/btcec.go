package secp256k1suite

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/blake2b"
)

const (
	CompressedPubKeyLength = 33
	SignatureLength        = 64
)

var (
	ErrBadDigestLength = errors.New("digest must be 32 bytes")
	ErrNotCompressed   = errors.New("public key must be 33 byte compressed form")
	ErrNilKey          = errors.New("nil private key")
)

// NewCipherSuite returns the btcec backed CipherSuite
func NewCipherSuite() CipherSuite {
	return &SECP256k1SuiteBTCEC{}
}

type SECP256k1SuiteBTCEC struct{}

// Blake2b256 returns a digest suitable for Sign.
func (c *SECP256k1SuiteBTCEC) Blake2b256(image ...[]byte) []byte {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		// New256 only fails for oversized keys
		panic(err)
	}
	for _, b := range image {
		hasher.Write(b)
	}
	return hasher.Sum(nil)
}

// Sign is given a digest to sign.
func (c *SECP256k1SuiteBTCEC) Sign(digest []byte, key *ecdsa.PrivateKey) ([]byte, error) {

	if len(digest) != 32 {
		return nil, fmt.Errorf("%w: have %d", ErrBadDigestLength, len(digest))
	}
	if key == nil || key.D == nil {
		return nil, ErrNilKey
	}

	priv, _ := btcec.PrivKeyFromBytes(key.D.FillBytes(make([]byte, 32)))

	// SignCompact gives [V || R || S], V is only needed for recovery
	vrs, err := btcecdsa.SignCompact(priv, digest, true)
	if err != nil {
		return nil, err
	}
	return vrs[1:], nil
}

// VerifySignature verifies a 64 byte signature [R, S] format. Both S values
// are accepted: the signer is identified by the public key, so malleability
// does not matter here.
func (c *SECP256k1SuiteBTCEC) VerifySignature(pub, digest, sig []byte) bool {
	if len(digest) != 32 {
		return false
	}
	if len(sig) != SignatureLength {
		return false
	}

	btpub, err := parseCompressed(pub)
	if err != nil {
		return false
	}

	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return false
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return false
	}

	// Verify rejects zero R or S
	return btcecdsa.NewSignature(&r, &s).Verify(digest, btpub)
}

// ValidatePublicKey checks pub is a compressed point on the curve
func (c *SECP256k1SuiteBTCEC) ValidatePublicKey(pub []byte) error {
	_, err := parseCompressed(pub)
	return err
}

// PubCompressed returns the 33 byte compressed public key for key
func PubCompressed(key *ecdsa.PrivateKey) []byte {
	priv, _ := btcec.PrivKeyFromBytes(key.D.FillBytes(make([]byte, 32)))
	return priv.PubKey().SerializeCompressed()
}

// GenerateKey creates a new secp256k1 key
func GenerateKey() (*ecdsa.PrivateKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return priv.ToECDSA(), nil
}

// KeyFromBytes reads a 32 byte secret scalar
func KeyFromBytes(b []byte) (*ecdsa.PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("secp256k1 secret must be 32 bytes not %d", len(b))
	}
	priv, _ := btcec.PrivKeyFromBytes(b)
	return priv.ToECDSA(), nil
}

func parseCompressed(pub []byte) (*btcec.PublicKey, error) {
	if len(pub) != CompressedPubKeyLength || !btcec.IsCompressedPubKey(pub) {
		return nil, ErrNotCompressed
	}
	return btcec.ParsePubKey(pub)
}
