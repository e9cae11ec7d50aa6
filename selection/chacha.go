package selection

import (
	"encoding/binary"
	"math/bits"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/chacha20"
)

const blockSize = 64

// DRNG is a deterministic random number generator. The selection algorithms
// only ever consume 32 and 64 bit words from it.
type DRNG interface {
	Uint32() uint32
	Uint64() uint64
}

// ChaCha is a ChaCha20 keystream generator with a zero nonce. Words are read
// little endian from the keystream in order, so the sequence matches the
// ChaCha20Rng of the rust rand_chacha crate for the same seed.
type ChaCha struct {
	seed   [32]byte
	cipher *chacha20.Cipher
	block  [blockSize]byte
	next   int

	// NumSamplesRead counts the 32 bit words consumed
	NumSamplesRead int
}

// NewChaCha keys a new generator with seed
func NewChaCha(seed [32]byte) *ChaCha {
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		// only fails on bad key or nonce lengths
		panic(err)
	}
	return &ChaCha{seed: seed, cipher: c, next: blockSize}
}

// Seed is the seed the generator was created with
func (c *ChaCha) Seed() [32]byte { return c.seed }

func (c *ChaCha) Uint32() uint32 {
	if c.next >= blockSize {
		c.block = [blockSize]byte{}
		c.cipher.XORKeyStream(c.block[:], c.block[:])
		c.next = 0
	}
	w := binary.LittleEndian.Uint32(c.block[c.next:])
	c.next += 4
	c.NumSamplesRead++
	return w
}

// Uint64 is the next two words, low word first
func (c *ChaCha) Uint64() uint64 {
	lo := uint64(c.Uint32())
	hi := uint64(c.Uint32())
	return hi<<32 | lo
}

// uint128 is the next two 64 bit values, low first
func uint128(r DRNG) uint256.Int {
	lo := r.Uint64()
	hi := r.Uint64()
	return uint256.Int{lo, hi, 0, 0}
}

// genRangeU32 draws uniformly from [0, n) using widening multiply rejection
// sampling. n must be > 0.
func genRangeU32(r DRNG, n uint32) uint32 {
	zone := (n << bits.LeadingZeros32(n)) - 1
	for {
		hi, lo := bits.Mul32(r.Uint32(), n)
		if lo <= zone {
			return hi
		}
	}
}

// genRangeU128 is genRangeU32 for 128 bit bounds. n must be in (0, 2^128).
func genRangeU128(r DRNG, n *uint256.Int) uint256.Int {
	zone := new(uint256.Int).Lsh(n, uint(128-n.BitLen()))
	zone.SubUint64(zone, 1)
	for {
		v := uint128(r)
		var prod uint256.Int
		prod.Mul(&v, n)
		lo := uint256.Int{prod[0], prod[1], 0, 0}
		if !lo.Gt(zone) {
			return uint256.Int{prod[2], prod[3], 0, 0}
		}
	}
}

// Shuffle permutes s in place, Fisher-Yates from the last index down
func Shuffle[T any](r DRNG, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := genRangeU32(r, uint32(i+1))
		s[i], s[j] = s[j], s[i]
	}
}
