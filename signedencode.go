package ariadne

import (
	"crypto/ecdsa"
	"crypto/ed25519"

	"github.com/RobustRoundRobin/go-ariadne/plutus"
)

// RegistrationMessage is the message both the stake pool and the authority
// sign to register. Binding the genesis utxo stops a registration for one
// chain being replayed on another. Binding the consumed utxo stops an old
// registration being replayed on the same chain.
type RegistrationMessage struct {
	Genesis      UtxoID
	AuthorityKey []byte
	ConsumedUtxo UtxoID
}

// UtxoDatum is the plutus form of a utxo id
func UtxoDatum(u UtxoID) plutus.Data {
	return plutus.NewConstr(0,
		plutus.NewConstr(0, plutus.Bytes(u.TxHash[:])),
		plutus.NewUint(uint64(u.Index)))
}

// ToDatum builds the plutus form of the message
func (m RegistrationMessage) ToDatum() plutus.Data {
	return plutus.NewConstr(0,
		UtxoDatum(m.Genesis),
		plutus.Bytes(m.AuthorityKey),
		UtxoDatum(m.ConsumedUtxo))
}

// Encode is the CBOR encoding that gets signed
func (m RegistrationMessage) Encode() []byte {
	// every field is a constructor, byte string or small integer
	return plutus.MustEncode(m.ToDatum())
}

// VerifySignatures checks the stake pool signature and the authority
// signature over the encoded message. Either or both may fail.
func (m RegistrationMessage) VerifySignatures(
	c CipherSuite, pool StakePoolKey, mainchainSig, sidechainSig []byte) (bool, bool) {

	b := m.Encode()
	return VerifyStakePoolSig(pool, b, mainchainSig), VerifyAuthoritySig(c, m.AuthorityKey, b, sidechainSig)
}

// SignRegistration produces the registration data a candidate would publish
// for consumed. It is used by tools and tests; real registrations are made
// off chain by the stake pool operator.
func SignRegistration(
	c CipherSuite, genesis UtxoID, poolKey ed25519.PrivateKey, authority *ecdsa.PrivateKey,
	authorityPub []byte, consumed UtxoID,
) (StakePoolKey, RegistrationData, error) {

	pool, err := StakePoolKeyFromBytes(poolKey.Public().(ed25519.PublicKey))
	if err != nil {
		return StakePoolKey{}, RegistrationData{}, err
	}

	msg := RegistrationMessage{Genesis: genesis, AuthorityKey: authorityPub, ConsumedUtxo: consumed}.Encode()

	scSig, err := c.Sign(c.Blake2b256(msg), authority)
	if err != nil {
		return StakePoolKey{}, RegistrationData{}, err
	}

	return pool, RegistrationData{
		ConsumedUtxo:       consumed,
		MainchainSignature: ed25519.Sign(poolKey, msg),
		SidechainSignature: scSig,
		AuthorityKey:       append([]byte{}, authorityPub...),
		TxInputs:           []UtxoID{consumed},
	}, nil
}
