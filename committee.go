package ariadne

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/RobustRoundRobin/go-ariadne/selection"
)

var (
	ErrNoCommittee = errors.New("no committee could be selected")
)

// MemberKind says which pool a committee member was drawn from
type MemberKind int

const (
	MemberPermissioned MemberKind = iota
	MemberRegistered
)

// CommitteeMember is one seat of the committee. A candidate drawn more than
// once holds more than one seat.
type CommitteeMember struct {
	Kind         MemberKind
	AuthorityKey AuthorityKey
	Keys         BlockProductionKeys
	// StakePoolKey is only set for registered members
	StakePoolKey StakePoolKey
}

func lessMember(a, b CommitteeMember) bool {
	return bytes.Compare(a.AuthorityKey[:], b.AuthorityKey[:]) < 0
}

// CalculateCommittee validates the inputs and allocates the seats for the
// operating epoch. The seed is derived from the epoch nonce and epoch.
func CalculateCommittee(
	c CipherSuite, genesis UtxoID, inputs *AuthoritySelectionInputs, epoch uint64,
	policy selection.Policy, logger Logger,
) ([]CommitteeMember, error) {

	logger = orNoop(logger)

	seed, err := DeriveSeedFromNonce(inputs.EpochNonce, epoch)
	if err != nil {
		return nil, err
	}

	v := NewRegistrationValidator(c, genesis, logger)
	registered := v.FilterRegistered(inputs.Registered)
	permissioned := FilterPermissioned(c, inputs.Permissioned, logger)

	weighted := make([]selection.Weighted[CommitteeMember], len(registered))
	for i, r := range registered {
		weighted[i] = selection.Weighted[CommitteeMember]{
			Candidate: CommitteeMember{
				Kind: MemberRegistered, AuthorityKey: r.AuthorityKey, Keys: r.Keys, StakePoolKey: r.StakePoolKey,
			},
			Weight: selection.NewWeight(uint64(r.Stake)),
		}
	}
	members := make([]CommitteeMember, len(permissioned))
	for i, p := range permissioned {
		members[i] = CommitteeMember{Kind: MemberPermissioned, AuthorityKey: p.AuthorityKey, Keys: p.Keys}
	}

	d := inputs.DParameter
	committee, err := selection.Select(
		policy, d.NumPermissionedSeats, d.NumRegisteredSeats, weighted, members, seed, lessMember)
	if err != nil {
		logger.Warn("ariadne: failed to select committee", "epoch", epoch,
			"permissioned", len(permissioned), "registered", len(registered), "err", err)
		return nil, fmt.Errorf("%w: epoch %d: %w", ErrNoCommittee, epoch, err)
	}

	logger.Info("ariadne: selected committee", "epoch", epoch, "seats", len(committee),
		"permissioned", len(permissioned), "registered", len(registered), "seed", seed.Hex())
	return committee, nil
}

// Selector ties a data source to committee calculation
type Selector struct {
	config *Config
	suite  CipherSuite
	src    DataSource
	logger Logger
}

func NewSelector(config *Config, c CipherSuite, src DataSource, logger Logger) *Selector {
	return &Selector{config: config, suite: c, src: src, logger: orNoop(logger)}
}

// Committee selects the committee for sidechainEpoch, using the mainchain
// epoch in progress when it starts.
func (s *Selector) Committee(ctx context.Context, sidechainEpoch uint64) ([]CommitteeMember, error) {
	mainchainEpoch, err := s.config.Epochs.MainchainEpochForSidechainEpoch(sidechainEpoch)
	if err != nil {
		return nil, err
	}
	return s.CommitteeFor(ctx, sidechainEpoch, mainchainEpoch)
}

// CommitteeFor selects the committee for sidechainEpoch from the data
// observed for mainchainEpoch.
func (s *Selector) CommitteeFor(
	ctx context.Context, sidechainEpoch, mainchainEpoch uint64) ([]CommitteeMember, error) {

	inputs, err := InputsFromDataSource(ctx, s.src, mainchainEpoch, s.config.Scripts(), s.logger)
	if err != nil {
		return nil, err
	}
	return CalculateCommittee(s.suite, s.config.GenesisUtxo, inputs, sidechainEpoch, s.config.Policy(), s.logger)
}

// ParametersReport is the governance state for an epoch with the
// permissioned candidates checked.
type ParametersReport struct {
	DParameter DParameter
	// Permissioned holds one entry per published candidate, in order
	Permissioned []PermissionedReport
}

type PermissionedReport struct {
	Raw       RawPermissionedCandidate
	Candidate PermissionedCandidate
	Err       error
}

// Parameters reports the D parameter and permissioned candidates for
// mainchainEpoch.
func (s *Selector) Parameters(ctx context.Context, mainchainEpoch uint64) (*ParametersReport, error) {
	params, err := s.src.AriadneParameters(ctx, mainchainEpoch, s.config.DParameterPolicy, s.config.PermissionedPolicy)
	if err == nil && params == nil {
		err = ErrExpectedDataNotFound
	}
	if err != nil {
		return nil, &InputsError{Query: QueryAriadneParameters, Epoch: mainchainEpoch, Err: err}
	}

	r := &ParametersReport{DParameter: params.DParameter}
	for _, raw := range params.Permissioned {
		p, err := ValidatePermissioned(s.suite, raw)
		r.Permissioned = append(r.Permissioned, PermissionedReport{Raw: raw, Candidate: p, Err: err})
	}
	return r, nil
}

// RegistrationStatuses reports every registration pool made that is visible
// for mainchainEpoch. ok is false if there are none.
func (s *Selector) RegistrationStatuses(
	ctx context.Context, mainchainEpoch uint64, pool StakePoolKey) (CandidateStatus, bool, error) {

	raws, err := s.src.CandidateRegistrations(ctx, mainchainEpoch, s.config.CommitteeCandidateAddress)
	if err != nil {
		return CandidateStatus{}, false, &InputsError{Query: QueryCandidates, Epoch: mainchainEpoch, Err: err}
	}
	v := NewRegistrationValidator(s.suite, s.config.GenesisUtxo, s.logger)
	cs, ok := v.RegistrationStatuses(raws, pool)
	return cs, ok, nil
}
