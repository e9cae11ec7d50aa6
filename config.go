package ariadne

import (
	"fmt"

	"github.com/RobustRoundRobin/go-ariadne/selection"
)

// Config carries the authority selection configuration
type Config struct {
	GenesisUtxo UtxoID `toml:",omitempty"` // GenesisUtxo identifies the sidechain. Registrations must be bound to it.

	CommitteeCandidateAddress MainchainAddress `toml:",omitempty"` // Mainchain address holding registration utxos
	DParameterPolicy          PolicyID         `toml:",omitempty"` // Minting policy of the D parameter token
	PermissionedPolicy        PolicyID         `toml:",omitempty"` // Minting policy of the permissioned candidates token

	Algorithm     selection.Algorithm `toml:",omitempty"` // v1 (merged weighted draw) or v2 (guaranteed assignment, default)
	FillEmptyPool bool                `toml:",omitempty"` // Give all seats to the other pool when a pool with seats is empty

	DataEpochOffset   uint64 `toml:",omitempty"` // Settlement epoch = requested epoch - offset
	SecurityParameter uint64 `toml:",omitempty"` // Blocks below the tip before a mainchain block is considered stable

	CandidatesCacheSize int `toml:",omitempty"` // Entries in the registrations cache
	StakeCacheSize      int `toml:",omitempty"` // Entries in the stake distribution cache
	ParametersCacheSize int `toml:",omitempty"` // Entries in the ariadne parameters cache
	NonceCacheSize      int `toml:",omitempty"` // Entries in the epoch nonce cache

	Epochs EpochConfig
}

// DefaultConfig provides the default authority selection configuration
var DefaultConfig = &Config{
	Algorithm:           selection.AlgorithmV2,
	DataEpochOffset:     2,
	SecurityParameter:   432,
	CandidatesCacheSize: 64,
	StakeCacheSize:      100,
	ParametersCacheSize: 64,
	NonceCacheSize:      64,
	Epochs: EpochConfig{
		Mainchain: MainchainEpochConfig{EpochDurationMillis: 432000000},
		Sidechain: SidechainEpochConfig{SlotDurationMillis: 6000, SlotsPerEpoch: 60},
	},
}

// NewConfig returns a copy of DefaultConfig
func NewConfig() *Config {
	c := *DefaultConfig
	return &c
}

// Scripts returns the mainchain locations of the selection data
func (c *Config) Scripts() MainchainScripts {
	return MainchainScripts{
		CommitteeCandidateAddress: c.CommitteeCandidateAddress,
		DParameterPolicy:          c.DParameterPolicy,
		PermissionedPolicy:        c.PermissionedPolicy,
	}
}

// Policy returns the seat allocation policy
func (c *Config) Policy() selection.Policy {
	return selection.Policy{Algorithm: c.Algorithm, FillEmptyPool: c.FillEmptyPool}
}

// Validate rejects configurations that can not select a committee
func (c *Config) Validate() error {
	if c.CandidatesCacheSize <= 0 || c.StakeCacheSize <= 0 || c.ParametersCacheSize <= 0 || c.NonceCacheSize <= 0 {
		return fmt.Errorf("cache sizes must be positive")
	}
	if c.Epochs.Mainchain.EpochDurationMillis == 0 ||
		c.Epochs.Sidechain.SlotDurationMillis == 0 || c.Epochs.Sidechain.SlotsPerEpoch == 0 {
		return ErrBadEpochConfig
	}
	return nil
}
