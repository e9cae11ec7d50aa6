package mock

import (
	"crypto/ecdsa"
	"encoding/binary"

	"github.com/vechain/go-ecvrf"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
)

// NonceSigner derives unpredictable but verifiable epoch nonces for a dev
// chain. For each epoch:
//
//	alpha = Blake2b256(genesis tx hash | genesis index | epoch)
//	nonce, proof = VRF-Prove(key, alpha)
//
// Anyone holding the public key can check a nonce with VerifyNonce.
type NonceSigner struct {
	suite   ariadne.CipherSuite
	key     *ecdsa.PrivateKey
	genesis ariadne.UtxoID
	vrf     ecvrf.VRF
}

func NewNonceSigner(c ariadne.CipherSuite, key *ecdsa.PrivateKey, genesis ariadne.UtxoID) *NonceSigner {
	return &NonceSigner{suite: c, key: key, genesis: genesis, vrf: ecvrf.NewSecp256k1Sha256Tai()}
}

func alpha(c ariadne.CipherSuite, genesis ariadne.UtxoID, epoch uint64) []byte {
	var index [2]byte
	var e [8]byte
	binary.BigEndian.PutUint16(index[:], genesis.Index)
	binary.BigEndian.PutUint64(e[:], epoch)
	return c.Blake2b256(genesis.TxHash[:], index[:], e[:])
}

// Nonce returns the nonce for epoch and the proof for it
func (s *NonceSigner) Nonce(epoch uint64) (ariadne.EpochNonce, []byte, error) {
	beta, pi, err := s.vrf.Prove(s.key, alpha(s.suite, s.genesis, epoch))
	if err != nil {
		return nil, nil, err
	}
	return ariadne.EpochNonce(beta), pi, nil
}

// VerifyNonce checks proof and returns the nonce it proves
func VerifyNonce(
	c ariadne.CipherSuite, pub *ecdsa.PublicKey, genesis ariadne.UtxoID, epoch uint64, proof []byte,
) (ariadne.EpochNonce, error) {
	beta, err := ecvrf.NewSecp256k1Sha256Tai().Verify(pub, alpha(c, genesis, epoch), proof)
	if err != nil {
		return nil, err
	}
	return ariadne.EpochNonce(beta), nil
}
