package ariadne

import (
	"encoding/hex"

	"github.com/holiman/uint256"
)

// Seed keys the selection generator for one operating epoch
type Seed [32]byte

func (s Seed) Hex() string { return hex.EncodeToString(s[:]) }

// DeriveSeed mixes the operating epoch into the settlement epoch nonce. The
// nonce, right padded with zeros to 32 bytes, is read as a big endian 256 bit
// integer and the epoch is added modulo 2^256. Distinct operating epochs that
// share a settlement epoch therefore get distinct seeds.
func DeriveSeed(nonce [EpochNonceLength]byte, operatingEpoch uint64) Seed {
	n := new(uint256.Int).SetBytes32(nonce[:])
	n.Add(n, uint256.NewInt(operatingEpoch))
	return Seed(n.Bytes32())
}

// DeriveSeedFromNonce canonicalizes nonce before deriving the seed
func DeriveSeedFromNonce(nonce EpochNonce, operatingEpoch uint64) (Seed, error) {
	c, err := nonce.Canonical()
	if err != nil {
		return Seed{}, err
	}
	return DeriveSeed(c, operatingEpoch), nil
}
