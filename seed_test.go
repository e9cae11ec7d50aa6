package ariadne_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
)

func TestDeriveSeed(t *testing.T) {
	assert := assert.New(t)

	var nonce [32]byte
	nonce[31] = 10
	s := ariadne.DeriveSeed(nonce, 2)
	want := ariadne.Seed{}
	want[31] = 12
	assert.Equal(want, s)

	// carries propagate
	nonce[31] = 0xff
	s = ariadne.DeriveSeed(nonce, 1)
	assert.Equal(byte(0x01), s[30])
	assert.Equal(byte(0x00), s[31])

	// and wrap at 2^256
	var top [32]byte
	copy(top[:], bytes.Repeat([]byte{0xff}, 32))
	assert.Equal(ariadne.Seed{}, ariadne.DeriveSeed(top, 1))
}

func TestDeriveSeedFromNonce(t *testing.T) {
	require := require.New(t)

	// short nonces are right padded, so the epoch lands in the low bytes
	s, err := ariadne.DeriveSeedFromNonce(ariadne.EpochNonce{0x01}, 5)
	require.NoError(err)
	require.Equal(byte(0x01), s[0])
	require.Equal(byte(0x05), s[31])

	s, err = ariadne.DeriveSeedFromNonce(nil, 7)
	require.NoError(err)
	require.Equal(byte(0x07), s[31])

	_, err = ariadne.DeriveSeedFromNonce(make(ariadne.EpochNonce, 33), 1)
	require.ErrorIs(err, ariadne.ErrNonceTooLong)

	// distinct operating epochs, same nonce
	a, _ := ariadne.DeriveSeedFromNonce(ariadne.EpochNonce{0x42}, 100)
	b, _ := ariadne.DeriveSeedFromNonce(ariadne.EpochNonce{0x42}, 101)
	require.NotEqual(a, b)
}
