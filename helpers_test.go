package ariadne_test

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"testing"

	"github.com/gtank/ristretto255"
	"github.com/stretchr/testify/require"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
	"github.com/RobustRoundRobin/go-ariadne/secp256k1suite"
)

var (
	suite = secp256k1suite.NewCipherSuite()

	genesis = ariadne.UtxoID{TxHash: ariadne.TxHash{0xaa, 0x01}, Index: 1}
)

// candidate holds every key a registering stake pool operator controls
type candidate struct {
	pool         ed25519.PrivateKey
	authority    *ecdsa.PrivateKey
	authorityPub []byte
	aura         []byte
	grandpa      []byte
}

func newCandidate(t *testing.T, i byte) candidate {
	t.Helper()

	pool := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{i + 1}, ed25519.SeedSize))
	authority, err := secp256k1suite.KeyFromBytes(bytes.Repeat([]byte{i + 1}, 32))
	require.NoError(t, err)

	grandpa := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{i + 101}, ed25519.SeedSize))
	aura := ristretto255.NewElement().FromUniformBytes(bytes.Repeat([]byte{i + 1}, 64)).Encode(nil)

	return candidate{
		pool:         pool,
		authority:    authority,
		authorityPub: secp256k1suite.PubCompressed(authority),
		aura:         aura,
		grandpa:      grandpa.Public().(ed25519.PublicKey),
	}
}

func (c candidate) poolKey(t *testing.T) ariadne.StakePoolKey {
	k, err := ariadne.StakePoolKeyFromBytes(c.pool.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	return k
}

func (c candidate) authorityKey() ariadne.AuthorityKey {
	k := ariadne.AuthorityKey{}
	copy(k[:], c.authorityPub)
	return k
}

func (c candidate) raw() ariadne.RawPermissionedCandidate {
	return ariadne.RawPermissionedCandidate{AuthorityKey: c.authorityPub, AuraKey: c.aura, GrandpaKey: c.grandpa}
}

// register makes a valid registration spending consumed, placed on chain at
// block
func (c candidate) register(t *testing.T, chain ariadne.UtxoID, consumed byte, block uint32) ariadne.RegistrationData {
	t.Helper()
	_, r, err := ariadne.SignRegistration(
		suite, chain, c.pool, c.authority, c.authorityPub, ariadne.UtxoID{TxHash: ariadne.TxHash{consumed}})
	require.NoError(t, err)
	r.AuraKey = c.aura
	r.GrandpaKey = c.grandpa
	r.UtxoInfo = ariadne.UtxoInfo{
		UtxoID:      ariadne.UtxoID{TxHash: ariadne.TxHash{0xee, consumed}},
		BlockNumber: block,
	}
	return r
}

func stake(v uint64) *ariadne.StakeDelegation {
	s := ariadne.StakeDelegation(v)
	return &s
}

// TestLogger prints through the testing log
type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) LazyValue(fn func() string) interface{} { return fn() }

func (l *TestLogger) log(msg string, ctx ...interface{}) {
	if len(ctx)%2 != 0 {
		panic("even number of context arguments required")
	}
	l.t.Log(append([]interface{}{msg}, ctx...)...)
}

func (l *TestLogger) Trace(msg string, ctx ...interface{}) { l.log(msg, ctx...) }
func (l *TestLogger) Debug(msg string, ctx ...interface{}) { l.log(msg, ctx...) }
func (l *TestLogger) Info(msg string, ctx ...interface{})  { l.log(msg, ctx...) }
func (l *TestLogger) Warn(msg string, ctx ...interface{})  { l.log(msg, ctx...) }
func (l *TestLogger) Crit(msg string, ctx ...interface{}) {
	l.log(msg, ctx...)
	panic("crit")
}
