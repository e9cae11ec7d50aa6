package ariadne

import (
	"context"
	"errors"
)

var (
	// ErrExpectedDataNotFound means the mainchain does not yet hold data that
	// selection requires, as opposed to the source failing.
	ErrExpectedDataNotFound = errors.New("expected data not found")
)

// DataSource provides the mainchain observations selection depends on. The
// epoch arguments are the mainchain epochs selection is being run for, the
// source applies DataEpoch itself.
type DataSource interface {
	// AriadneParameters returns the D parameter and the permissioned candidate
	// list in force. A missing D parameter is ErrExpectedDataNotFound.
	AriadneParameters(
		ctx context.Context, epoch uint64, dParamPolicy, permissionedPolicy PolicyID) (*AriadneParameters, error)

	// CandidateRegistrations returns the unspent registrations at address,
	// grouped by stake pool, with each pool's stake.
	CandidateRegistrations(
		ctx context.Context, epoch uint64, address MainchainAddress) ([]CandidateRegistrations, error)

	// EpochNonce returns nil, nil if the nonce is not known
	EpochNonce(ctx context.Context, epoch uint64) (EpochNonce, error)

	// DataEpoch maps epoch to the settlement epoch whose data is used for it
	DataEpoch(ctx context.Context, epoch uint64) (uint64, error)
}

// StableEpochSource is implemented by sources that know which mainchain
// epochs can no longer change.
type StableEpochSource interface {
	LatestStableEpoch(ctx context.Context) (uint64, bool, error)
}
