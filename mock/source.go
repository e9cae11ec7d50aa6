package mock

import (
	"context"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
)

// Source is an ariadne.DataSource over a Rotation. Epochs are served round
// robin by the requested mainchain epoch.
type Source struct {
	rotation *Rotation
	offset   uint64
	nonces   *NonceSigner
	logger   ariadne.Logger
}

// NewSource serves r. nonces may be nil, in which case epochs without a
// nonce in the file have none.
func NewSource(r *Rotation, config *ariadne.Config, nonces *NonceSigner, logger ariadne.Logger) *Source {
	if logger == nil {
		logger = ariadne.NoopLogger{}
	}
	return &Source{rotation: r, offset: config.DataEpochOffset, nonces: nonces, logger: logger}
}

func (s *Source) epoch(epoch uint64) *Epoch {
	return &s.rotation.Epochs[epoch%uint64(len(s.rotation.Epochs))]
}

func (s *Source) DataEpoch(ctx context.Context, epoch uint64) (uint64, error) {
	return ariadne.OffsetDataEpoch(epoch, s.offset)
}

// AriadneParameters always reports a permissioned list, possibly empty
func (s *Source) AriadneParameters(
	ctx context.Context, epoch uint64, _, _ ariadne.PolicyID) (*ariadne.AriadneParameters, error) {

	e := s.epoch(epoch)
	params := &ariadne.AriadneParameters{
		DParameter: ariadne.DParameter{
			NumPermissionedSeats: e.DParameter.Permissioned,
			NumRegisteredSeats:   e.DParameter.Registered,
		},
		HavePermissioned: true,
		Permissioned:     make([]ariadne.RawPermissionedCandidate, len(e.Permissioned)),
	}
	for i, p := range e.Permissioned {
		params.Permissioned[i] = ariadne.RawPermissionedCandidate{
			AuthorityKey: p.SidechainPubKey,
			AuraKey:      p.AuraPubKey,
			GrandpaKey:   p.GrandpaPubKey,
		}
	}
	s.logger.Debug("mock: ariadne parameters", "epoch", epoch,
		"permissioned", e.DParameter.Permissioned, "registered", e.DParameter.Registered,
		"candidates", s.logger.LazyValue(func() string { return joinStrings(e.Permissioned) }))
	return params, nil
}

// CandidateRegistrations groups the registrations visible in epoch by stake
// pool. Later entries in the file are later on chain.
func (s *Source) CandidateRegistrations(
	ctx context.Context, epoch uint64, _ ariadne.MainchainAddress) ([]ariadne.CandidateRegistrations, error) {

	e := s.epoch(epoch)
	pools := []ariadne.CandidateRegistrations{}
	index := map[ariadne.StakePoolKey]int{}

	for j, reg := range e.Registrations {
		if !reg.visible(epoch) {
			continue
		}
		key, err := ariadne.StakePoolKeyFromBytes(reg.MainchainPubKey)
		if err != nil {
			return nil, err
		}
		i, ok := index[key]
		if !ok {
			stake := ariadne.StakeDelegation(DefaultStake)
			if reg.Stake != nil {
				stake = ariadne.StakeDelegation(*reg.Stake)
			}
			i = len(pools)
			index[key] = i
			pools = append(pools, ariadne.CandidateRegistrations{StakePoolKey: key, Stake: &stake})
		}
		pools[i].Registrations = append(pools[i].Registrations, ariadne.RegistrationData{
			ConsumedUtxo:       reg.RegistrationUtxo,
			SidechainSignature: reg.SidechainSignature,
			MainchainSignature: reg.MainchainSignature,
			AuthorityKey:       reg.SidechainPubKey,
			AuraKey:            reg.AuraPubKey,
			GrandpaKey:         reg.GrandpaPubKey,
			UtxoInfo: ariadne.UtxoInfo{
				UtxoID:      reg.RegistrationUtxo,
				EpochNumber: uint32(epoch),
				BlockNumber: uint32(j),
			},
			TxInputs: []ariadne.UtxoID{reg.RegistrationUtxo},
		})
		s.logger.Debug("mock: registration", "epoch", epoch, "candidate", reg.String())
	}
	return pools, nil
}

// EpochNonce is the nonce from the file or, failing that, the VRF nonce
func (s *Source) EpochNonce(ctx context.Context, epoch uint64) (ariadne.EpochNonce, error) {
	if n := s.epoch(epoch).Nonce; len(n) > 0 {
		return ariadne.EpochNonce(n), nil
	}
	if s.nonces == nil {
		return nil, nil
	}
	nonce, _, err := s.nonces.Nonce(epoch)
	return nonce, err
}

func joinStrings(ps []PermissionedCandidate) string {
	s := ""
	for i, p := range ps {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s
}
