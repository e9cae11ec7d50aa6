package ariadne

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Query names used in InputsError
const (
	QueryAriadneParameters = "ariadne parameters"
	QueryCandidates        = "candidates"
	QueryEpochNonce        = "epoch nonce"
)

// InputsError reports which data source query failed, and for which epoch
type InputsError struct {
	Query string
	Epoch uint64
	Err   error
}

func (e *InputsError) Error() string {
	return fmt.Sprintf("failed to get %s for epoch %d: %v", e.Query, e.Epoch, e.Err)
}

func (e *InputsError) Unwrap() error { return e.Err }

// MainchainScripts identify where the selection data lives on the mainchain
type MainchainScripts struct {
	CommitteeCandidateAddress MainchainAddress
	DParameterPolicy          PolicyID
	PermissionedPolicy        PolicyID
}

// AuthoritySelectionInputs is everything needed to select the committee for
// one epoch. None of it has been validated.
type AuthoritySelectionInputs struct {
	DParameter   DParameter
	Permissioned []RawPermissionedCandidate
	Registered   []CandidateRegistrations
	EpochNonce   EpochNonce
}

// InputsFromDataSource fetches the parameters, the registrations and the
// nonce concurrently. The first failure cancels the other queries. A missing
// permissioned list is an empty list when no permissioned seats are
// required, and ErrExpectedDataNotFound otherwise. A missing nonce is
// treated as empty.
func InputsFromDataSource(
	ctx context.Context, src DataSource, epoch uint64, scripts MainchainScripts, logger Logger,
) (*AuthoritySelectionInputs, error) {

	logger = orNoop(logger)

	var params *AriadneParameters
	var registered []CandidateRegistrations
	var nonce EpochNonce

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		params, err = src.AriadneParameters(gctx, epoch, scripts.DParameterPolicy, scripts.PermissionedPolicy)
		if err == nil && params == nil {
			err = fmt.Errorf("%w: d parameter", ErrExpectedDataNotFound)
		}
		if err != nil {
			return &InputsError{Query: QueryAriadneParameters, Epoch: epoch, Err: err}
		}
		return nil
	})

	g.Go(func() error {
		var err error
		registered, err = src.CandidateRegistrations(gctx, epoch, scripts.CommitteeCandidateAddress)
		if err != nil {
			return &InputsError{Query: QueryCandidates, Epoch: epoch, Err: err}
		}
		return nil
	})

	g.Go(func() error {
		var err error
		nonce, err = src.EpochNonce(gctx, epoch)
		if err == nil && len(nonce) > EpochNonceLength {
			err = fmt.Errorf("%w: %d bytes", ErrNonceTooLong, len(nonce))
		}
		if err != nil {
			return &InputsError{Query: QueryEpochNonce, Epoch: epoch, Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	permissioned := params.Permissioned
	if !params.HavePermissioned {
		if params.DParameter.NumPermissionedSeats > 0 {
			return nil, &InputsError{
				Query: QueryAriadneParameters, Epoch: epoch,
				Err: fmt.Errorf("%w: permissioned candidates for %d seats",
					ErrExpectedDataNotFound, params.DParameter.NumPermissionedSeats),
			}
		}
		permissioned = []RawPermissionedCandidate{}
	}

	if nonce == nil {
		logger.Info("ariadne: epoch nonce not found, using empty nonce", "epoch", epoch)
		nonce = EpochNonce{}
	}

	return &AuthoritySelectionInputs{
		DParameter:   params.DParameter,
		Permissioned: permissioned,
		Registered:   registered,
		EpochNonce:   nonce,
	}, nil
}
