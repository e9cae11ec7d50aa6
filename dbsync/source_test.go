package dbsync

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"database/sql"
	"testing"

	"github.com/gtank/ristretto255"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
	"github.com/RobustRoundRobin/go-ariadne/plutus"
	"github.com/RobustRoundRobin/go-ariadne/secp256k1suite"
)

// the parts of the db-sync schema the source reads
const schema = `
CREATE TABLE block (id INTEGER PRIMARY KEY, block_no INTEGER, epoch_no INTEGER, slot_no INTEGER);
CREATE TABLE tx (id INTEGER PRIMARY KEY, hash BLOB, block_id INTEGER, block_index INTEGER);
CREATE TABLE datum (id INTEGER PRIMARY KEY, hash BLOB, bytes BLOB);
CREATE TABLE tx_out (id INTEGER PRIMARY KEY, tx_id INTEGER, "index" INTEGER, address TEXT, data_hash BLOB);
CREATE TABLE tx_in (id INTEGER PRIMARY KEY, tx_in_id INTEGER, tx_out_id INTEGER, tx_out_index INTEGER);
CREATE TABLE multi_asset (id INTEGER PRIMARY KEY, policy BLOB, name BLOB);
CREATE TABLE ma_tx_out (id INTEGER PRIMARY KEY, ident INTEGER, tx_out_id INTEGER);
CREATE TABLE pool_hash (id INTEGER PRIMARY KEY, hash_raw BLOB);
CREATE TABLE epoch_stake (id INTEGER PRIMARY KEY, pool_id INTEGER, amount INTEGER, epoch_no INTEGER);
CREATE TABLE epoch_param (id INTEGER PRIMARY KEY, epoch_no INTEGER, nonce BLOB);
`

const address = ariadne.MainchainAddress("addr_test1wz")

var (
	genesis = ariadne.UtxoID{TxHash: ariadne.TxHash{0x0a}, Index: 0}

	dParamPolicy       = ariadne.PolicyID{0xd0}
	permissionedPolicy = ariadne.PolicyID{0xee}
)

type fixture struct {
	t  *testing.T
	db *sql.DB
}

func newFixture(t *testing.T) *fixture {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a new database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return &fixture{t: t, db: db}
}

func (f *fixture) insert(query string, args ...interface{}) int64 {
	res, err := f.db.Exec(query, args...)
	require.NoError(f.t, err)
	id, err := res.LastInsertId()
	require.NoError(f.t, err)
	return id
}

// blocks adds blocks 0..n-1, blocksPerEpoch to each epoch
func (f *fixture) blocks(n, blocksPerEpoch int) {
	for i := 0; i < n; i++ {
		f.insert(`INSERT INTO block (id, block_no, epoch_no, slot_no) VALUES ($1, $2, $3, $4)`,
			i+1, i, i/blocksPerEpoch, i*20)
	}
}

// tx adds a transaction to block blockNo, with single byte hash h
func (f *fixture) tx(h byte, blockNo, blockIndex int) int64 {
	return f.insert(`INSERT INTO tx (hash, block_id, block_index) VALUES ($1, $2, $3)`,
		txHash(h), blockNo+1, blockIndex)
}

func txHash(h byte) []byte {
	x := ariadne.TxHash{h}
	return x[:]
}

func (f *fixture) out(txID int64, index int, addr ariadne.MainchainAddress, datum plutus.Data) int64 {
	var hash []byte
	if datum != nil {
		b := plutus.MustEncode(datum)
		hash = append([]byte{byte(txID), byte(index)}, bytes.Repeat([]byte{0xdd}, 30)...)
		f.insert(`INSERT INTO datum (hash, bytes) VALUES ($1, $2)`, hash, b)
	}
	return f.insert(`INSERT INTO tx_out (tx_id, "index", address, data_hash) VALUES ($1, $2, $3, $4)`,
		txID, index, string(addr), hash)
}

// spend makes txID consume output index of outTxID
func (f *fixture) spend(txID, outTxID int64, index int) {
	f.insert(`INSERT INTO tx_in (tx_in_id, tx_out_id, tx_out_index) VALUES ($1, $2, $3)`, txID, outTxID, index)
}

func (f *fixture) token(policy ariadne.PolicyID, txOutID int64) {
	ident := f.insert(`INSERT INTO multi_asset (policy, name) VALUES ($1, $2)`, policy[:], []byte{})
	f.insert(`INSERT INTO ma_tx_out (ident, tx_out_id) VALUES ($1, $2)`, ident, txOutID)
}

func (f *fixture) stake(pool ariadne.StakePoolKey, epoch int, amounts ...uint64) {
	id := pool.PoolID()
	poolID := f.insert(`INSERT INTO pool_hash (hash_raw) VALUES ($1)`, id[:])
	for _, a := range amounts {
		f.insert(`INSERT INTO epoch_stake (pool_id, amount, epoch_no) VALUES ($1, $2, $3)`, poolID, a, epoch)
	}
}

type operator struct {
	pool      ed25519.PrivateKey
	key       ariadne.StakePoolKey
	authority []byte
	sign      func(consumed ariadne.UtxoID) ariadne.RegisterValidatorDatum
}

func newOperator(t *testing.T, i byte) operator {
	suite := secp256k1suite.NewCipherSuite()
	pool := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{i}, ed25519.SeedSize))
	authority, err := secp256k1suite.KeyFromBytes(bytes.Repeat([]byte{i}, 32))
	require.NoError(t, err)
	pub := secp256k1suite.PubCompressed(authority)
	grandpa := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{i + 50}, ed25519.SeedSize)).Public().(ed25519.PublicKey)
	aura := ristretto255.NewElement().FromUniformBytes(bytes.Repeat([]byte{i}, 64)).Encode(nil)

	o := operator{pool: pool, authority: pub}
	o.sign = func(consumed ariadne.UtxoID) ariadne.RegisterValidatorDatum {
		key, r, err := ariadne.SignRegistration(suite, genesis, pool, authority, pub, consumed)
		require.NoError(t, err)
		return ariadne.RegisterValidatorDatum{
			StakePoolKey:       key,
			MainchainSignature: r.MainchainSignature,
			AuthorityKey:       r.AuthorityKey,
			SidechainSignature: r.SidechainSignature,
			ConsumedUtxo:       consumed,
			AuraKey:            aura,
			GrandpaKey:         grandpa,
		}
	}
	o.key, err = ariadne.StakePoolKeyFromBytes(pool.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	return o
}

// register publishes a registration in a new transaction at blockNo which
// spends output 0 of a funding transaction.
func (f *fixture) register(o operator, h byte, blockNo, blockIndex int) (int64, ariadne.UtxoID) {
	funding := f.tx(h+100, blockNo, blockIndex)
	f.out(funding, 0, "addr_funds", nil)
	consumed := ariadne.UtxoID{TxHash: ariadne.TxHash{h + 100}}

	txID := f.tx(h, blockNo, blockIndex+1)
	f.spend(txID, funding, 0)
	d := o.sign(consumed)
	f.out(txID, 0, address, d.ToDatum())
	return txID, ariadne.UtxoID{TxHash: ariadne.TxHash{h}}
}

func newSource(t *testing.T, f *fixture) *Source {
	config := ariadne.NewConfig()
	config.SecurityParameter = 3
	s, err := New(f.db, config, nil)
	require.NoError(t, err)
	return s
}

func TestCandidateRegistrations(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	f := newFixture(t)
	f.blocks(20, 4) // epochs 0..4

	a, b := newOperator(t, 1), newOperator(t, 2)

	// a registers twice in epoch 1, b once in epoch 1 and once in epoch 3
	f.register(a, 1, 4, 0)
	f.register(b, 2, 5, 0)
	_, aSecond := f.register(a, 3, 6, 0)
	f.register(b, 4, 12, 0)

	// a registration in epoch 1 that is spent in epoch 2
	spent, _ := f.register(a, 5, 7, 0)
	deregister := f.tx(6, 9, 0)
	f.spend(deregister, spent, 0)

	f.stake(a.key, 3, 100, 50)
	f.stake(newOperator(t, 9).key, 3, 1)

	s := newSource(t, f)

	// data epoch 3
	pools, err := s.CandidateRegistrations(ctx, 5, address)
	require.NoError(err)
	require.Len(pools, 2)

	require.Equal(a.key, pools[0].StakePoolKey)
	require.Len(pools[0].Registrations, 2)
	require.Equal(ariadne.StakeDelegation(150), *pools[0].Stake)

	second := pools[0].Registrations[1]
	require.Equal(aSecond, second.UtxoInfo.UtxoID)
	require.Equal(uint32(6), second.UtxoInfo.BlockNumber)
	require.Equal(uint32(1), second.UtxoInfo.EpochNumber)
	require.Equal(uint64(120), second.UtxoInfo.SlotNumber)
	require.Equal(uint32(1), second.UtxoInfo.TxIndexWithinBlock)
	require.Equal([]ariadne.UtxoID{second.ConsumedUtxo}, second.TxInputs)

	// absent from a known distribution
	require.Equal(b.key, pools[1].StakePoolKey)
	require.Len(pools[1].Registrations, 2)
	require.Equal(ariadne.StakeDelegation(0), *pools[1].Stake)

	// what was read validates
	v := ariadne.NewRegistrationValidator(secp256k1suite.NewCipherSuite(), genesis, nil)
	active, ok := v.Validate(pools[0])
	require.True(ok)
	require.Equal(aSecond, active.UtxoInfo.UtxoID)

	// data epoch 1: the spent registration is still there, no stake is known
	pools, err = s.CandidateRegistrations(ctx, 3, address)
	require.NoError(err)
	require.Len(pools, 2)
	require.Len(pools[0].Registrations, 3)
	require.Len(pools[1].Registrations, 1)
	require.Nil(pools[0].Stake)

	// before any block
	_, err = s.CandidateRegistrations(ctx, 1, address)
	require.ErrorIs(err, ariadne.ErrEpochUnderflow)
}

func TestCandidateRegistrationsSkipsBadDatums(t *testing.T) {
	require := require.New(t)

	f := newFixture(t)
	f.blocks(8, 4)

	a := newOperator(t, 1)
	f.register(a, 1, 1, 0)
	junk := f.tx(2, 1, 5)
	f.out(junk, 0, address, plutus.NewInt(7))
	f.out(junk, 1, address, nil)

	pools, err := newSource(t, f).CandidateRegistrations(context.Background(), 2, address)
	require.NoError(err)
	require.Len(pools, 1)
	require.Len(pools[0].Registrations, 1)
}

func TestAriadneParameters(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	f := newFixture(t)
	f.blocks(16, 4)
	s := newSource(t, f)

	_, err := s.AriadneParameters(ctx, 4, dParamPolicy, permissionedPolicy)
	require.ErrorIs(err, ariadne.ErrExpectedDataNotFound)

	tx := f.tx(1, 2, 0)
	f.token(dParamPolicy, f.out(tx, 0, "addr_gov", ariadne.DParameter{NumPermissionedSeats: 2, NumRegisteredSeats: 3}.ToDatum()))

	p, err := s.AriadneParameters(ctx, 2, dParamPolicy, permissionedPolicy)
	require.NoError(err)
	require.Equal(ariadne.DParameter{NumPermissionedSeats: 2, NumRegisteredSeats: 3}, p.DParameter)
	require.False(p.HavePermissioned)

	o := newOperator(t, 3)
	raw := ariadne.RawPermissionedCandidate{AuthorityKey: o.authority, AuraKey: []byte{1}, GrandpaKey: []byte{2}}
	tx = f.tx(2, 9, 0)
	f.token(permissionedPolicy, f.out(tx, 0, "addr_gov", ariadne.PermissionedDatum([]ariadne.RawPermissionedCandidate{raw})))

	// a later d parameter, in epoch 3
	tx = f.tx(3, 13, 0)
	f.token(dParamPolicy, f.out(tx, 0, "addr_gov", ariadne.DParameter{NumRegisteredSeats: 9}.ToDatum()))

	// data epoch 2
	p, err = s.AriadneParameters(ctx, 4, dParamPolicy, permissionedPolicy)
	require.NoError(err)
	require.Equal(uint16(3), p.DParameter.NumRegisteredSeats)
	require.True(p.HavePermissioned)
	require.Equal([]ariadne.RawPermissionedCandidate{raw}, p.Permissioned)

	// data epoch 3
	p, err = s.AriadneParameters(ctx, 5, dParamPolicy, permissionedPolicy)
	require.NoError(err)
	require.Equal(ariadne.DParameter{NumRegisteredSeats: 9}, p.DParameter)
}

func TestEpochNonceAndStableEpoch(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	f := newFixture(t)
	s := newSource(t, f)

	_, ok, err := s.LatestStableEpoch(ctx)
	require.NoError(err)
	require.False(ok)

	// blocks 0..13, four to an epoch. With a security parameter of 3 block
	// 10 is the highest stable block, it is in epoch 2.
	f.blocks(14, 4)
	e, ok, err := s.LatestStableEpoch(ctx)
	require.NoError(err)
	require.True(ok)
	require.Equal(uint64(1), e)

	f.insert(`INSERT INTO epoch_param (epoch_no, nonce) VALUES ($1, $2)`, 2, []byte{0xab, 0xcd})
	n, err := s.EpochNonce(ctx, 4)
	require.NoError(err)
	require.Equal(ariadne.EpochNonce{0xab, 0xcd}, n)

	n, err = s.EpochNonce(ctx, 5)
	require.NoError(err)
	require.Nil(n)

	d, err := s.DataEpoch(ctx, 4)
	require.NoError(err)
	assert.Equal(t, uint64(2), d)
}
