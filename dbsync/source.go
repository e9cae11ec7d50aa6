// Package dbsync reads the selection inputs from a cardano-db-sync database.
package dbsync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
	"github.com/RobustRoundRobin/go-ariadne/plutus"
)

var (
	ErrBadRow = errors.New("dbsync: unexpected row")
)

// Source is an ariadne.DataSource and ariadne.StableEpochSource
type Source struct {
	db     *sql.DB
	config *ariadne.Config
	logger ariadne.Logger

	// stake distribution per settled epoch
	stake *lru.Cache
}

type stakeMap map[ariadne.PoolID]ariadne.StakeDelegation

func New(db *sql.DB, config *ariadne.Config, logger ariadne.Logger) (*Source, error) {
	if logger == nil {
		logger = ariadne.NoopLogger{}
	}
	stake, err := lru.New(config.StakeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("stake cache: %w", err)
	}
	return &Source{db: db, config: config, logger: logger, stake: stake}, nil
}

func (s *Source) DataEpoch(ctx context.Context, epoch uint64) (uint64, error) {
	return ariadne.OffsetDataEpoch(epoch, s.config.DataEpochOffset)
}

// LatestStableEpoch is one less than the epoch of the highest block that is
// at least the security parameter deep. Blocks after it can be replaced by a
// fork starting in its epoch.
func (s *Source) LatestStableEpoch(ctx context.Context) (uint64, bool, error) {
	var epoch sql.NullInt64
	err := s.db.QueryRowContext(ctx, stableBlockEpochSQL, s.config.SecurityParameter).Scan(&epoch)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !epoch.Valid || epoch.Int64 < 1 {
		return 0, false, nil
	}
	return uint64(epoch.Int64 - 1), true, nil
}

// EpochNonce returns nil if db-sync has no nonce for the epoch
func (s *Source) EpochNonce(ctx context.Context, epoch uint64) (ariadne.EpochNonce, error) {
	dataEpoch, err := s.DataEpoch(ctx, epoch)
	if err != nil {
		return nil, err
	}
	var nonce []byte
	err = s.db.QueryRowContext(ctx, epochNonceSQL, dataEpoch).Scan(&nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return nonce, nil
}

// AriadneParameters reads the latest D parameter and permissioned candidate
// datums minted up to the data epoch. A missing D parameter is
// ariadne.ErrExpectedDataNotFound. A missing permissioned list is reported
// through HavePermissioned.
func (s *Source) AriadneParameters(
	ctx context.Context, epoch uint64, dParamPolicy, permissionedPolicy ariadne.PolicyID,
) (*ariadne.AriadneParameters, error) {

	dataEpoch, err := s.DataEpoch(ctx, epoch)
	if err != nil {
		return nil, err
	}

	d, found, err := s.tokenDatum(ctx, dParamPolicy, dataEpoch)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: d parameter for epoch %d", ariadne.ErrExpectedDataNotFound, dataEpoch)
	}
	dParam, err := ariadne.DecodeDParameterDatum(d)
	if err != nil {
		return nil, fmt.Errorf("d parameter datum: %w", err)
	}

	params := &ariadne.AriadneParameters{DParameter: dParam}

	d, found, err = s.tokenDatum(ctx, permissionedPolicy, dataEpoch)
	if err != nil {
		return nil, err
	}
	if found {
		if params.Permissioned, err = ariadne.DecodePermissionedDatum(d); err != nil {
			return nil, fmt.Errorf("permissioned candidates datum: %w", err)
		}
		params.HavePermissioned = true
	}
	return params, nil
}

// tokenDatum finds the datum on the latest output carrying the policy token.
// An output without a datum is ariadne.ErrExpectedDataNotFound.
func (s *Source) tokenDatum(
	ctx context.Context, policy ariadne.PolicyID, dataEpoch uint64) (plutus.Data, bool, error) {

	var b []byte
	err := s.db.QueryRowContext(ctx, tokenUtxoForEpochSQL, policy[:], []byte{}, dataEpoch).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if b == nil {
		return nil, false, fmt.Errorf("%w: datum for policy %s", ariadne.ErrExpectedDataNotFound, policy.Hex())
	}
	d, err := plutus.Decode(b)
	if err != nil {
		return nil, false, fmt.Errorf("datum for policy %s: %w", policy.Hex(), err)
	}
	return d, true, nil
}

// CandidateRegistrations reads the registration utxos at address that are
// unspent as of the last block of the data epoch. Outputs without a valid
// registration datum are skipped. Pools appear in the order of their first
// registration.
func (s *Source) CandidateRegistrations(
	ctx context.Context, epoch uint64, address ariadne.MainchainAddress,
) ([]ariadne.CandidateRegistrations, error) {

	dataEpoch, err := s.DataEpoch(ctx, epoch)
	if err != nil {
		return nil, err
	}

	var block uint64
	err = s.db.QueryRowContext(ctx, latestBlockForEpochSQL, dataEpoch).Scan(&block)
	if errors.Is(err, sql.ErrNoRows) {
		return []ariadne.CandidateRegistrations{}, nil
	}
	if err != nil {
		return nil, err
	}

	outputs, err := s.registrationOutputs(ctx, address, block)
	if err != nil {
		return nil, err
	}

	stake, err := s.stakeDistribution(ctx, dataEpoch)
	if err != nil {
		return nil, err
	}

	var pools []ariadne.CandidateRegistrations
	index := map[ariadne.StakePoolKey]int{}
	for _, out := range outputs {
		datum, err := ariadne.DecodeRegisterValidatorDatum(out.datum)
		if err != nil {
			s.logger.Warn("dbsync: invalid registration datum", "utxo", out.info.UtxoID, "err", err)
			continue
		}
		i, ok := index[datum.StakePoolKey]
		if !ok {
			i = len(pools)
			index[datum.StakePoolKey] = i
			pools = append(pools, ariadne.CandidateRegistrations{
				StakePoolKey: datum.StakePoolKey,
				Stake:        stake.delegation(datum.StakePoolKey),
			})
		}
		pools[i].Registrations = append(pools[i].Registrations, datum.RegistrationData(out.info, out.inputs))
	}
	if pools == nil {
		pools = []ariadne.CandidateRegistrations{}
	}
	return pools, nil
}

type registrationOutput struct {
	info   ariadne.UtxoInfo
	inputs []ariadne.UtxoID
	datum  plutus.Data
}

func (s *Source) registrationOutputs(
	ctx context.Context, address ariadne.MainchainAddress, block uint64) ([]registrationOutput, error) {

	rows, err := s.db.QueryContext(ctx, utxosForAddressSQL, string(address), block)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type row struct {
		txID  int64
		info  ariadne.UtxoInfo
		datum []byte
	}
	var found []row
	for rows.Next() {
		var r row
		var hash []byte
		if err := rows.Scan(&r.txID, &hash, &r.info.UtxoID.Index, &r.info.BlockNumber, &r.info.SlotNumber,
			&r.info.EpochNumber, &r.info.TxIndexWithinBlock, &r.datum); err != nil {
			return nil, err
		}
		if len(hash) != ariadne.TxHashLength {
			return nil, fmt.Errorf("%w: tx hash of %d bytes", ErrBadRow, len(hash))
		}
		copy(r.info.UtxoID.TxHash[:], hash)
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	outputs := make([]registrationOutput, 0, len(found))
	for _, r := range found {
		if r.datum == nil {
			s.logger.Warn("dbsync: registration without datum", "utxo", r.info.UtxoID)
			continue
		}
		d, err := plutus.Decode(r.datum)
		if err != nil {
			s.logger.Warn("dbsync: undecodable registration datum", "utxo", r.info.UtxoID, "err", err)
			continue
		}
		inputs, err := s.txInputs(ctx, r.txID)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, registrationOutput{info: r.info, inputs: inputs, datum: d})
	}
	return outputs, nil
}

func (s *Source) txInputs(ctx context.Context, txID int64) ([]ariadne.UtxoID, error) {
	rows, err := s.db.QueryContext(ctx, txInputsSQL, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inputs []ariadne.UtxoID
	for rows.Next() {
		var hash []byte
		u := ariadne.UtxoID{}
		if err := rows.Scan(&hash, &u.Index); err != nil {
			return nil, err
		}
		if len(hash) != ariadne.TxHashLength {
			return nil, fmt.Errorf("%w: input tx hash of %d bytes", ErrBadRow, len(hash))
		}
		copy(u.TxHash[:], hash)
		inputs = append(inputs, u)
	}
	return inputs, rows.Err()
}

// delegation is nil when the distribution is unknown, and zero for a pool
// absent from a known distribution.
func (m stakeMap) delegation(pool ariadne.StakePoolKey) *ariadne.StakeDelegation {
	if len(m) == 0 {
		return nil
	}
	d := m[pool.PoolID()]
	return &d
}

// stakeDistribution sums the stake delegated to each pool in epoch. Non
// empty distributions are cached.
func (s *Source) stakeDistribution(ctx context.Context, epoch uint64) (stakeMap, error) {

	if v, ok := s.stake.Get(epoch); ok {
		return v.(stakeMap), nil
	}

	rows, err := s.db.QueryContext(ctx, stakeDistributionSQL, epoch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := stakeMap{}
	for rows.Next() {
		var hash []byte
		var amount uint64
		if err := rows.Scan(&hash, &amount); err != nil {
			return nil, err
		}
		id := ariadne.PoolID{}
		if len(hash) != len(id) {
			return nil, fmt.Errorf("%w: pool hash of %d bytes", ErrBadRow, len(hash))
		}
		copy(id[:], hash)
		m[id] = ariadne.StakeDelegation(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(m) > 0 {
		s.stake.Add(epoch, m)
	}
	return m, nil
}
