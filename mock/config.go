// Package mock serves selection inputs from a file, for development chains
// that have no mainchain to follow.
package mock

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
)

var (
	ErrNoEpochs      = errors.New("mock: no epochs in rotation")
	ErrUnknownStatus = errors.New("mock: unknown registration status")
)

// DefaultStake is delegated to registrations that do not set one
const DefaultStake = 333

// Status values for Registration
const (
	StatusActive                = "active"
	StatusPendingActivation     = "pending_activation"
	StatusPendingDeregistration = "pending_deregistration"
)

type DParameter struct {
	Permissioned uint16 `yaml:"permissioned"`
	Registered   uint16 `yaml:"registered"`
}

type PermissionedCandidate struct {
	Name            string           `yaml:"name,omitempty"`
	SidechainPubKey ariadne.HexBytes `yaml:"sidechain_pub_key"`
	AuraPubKey      ariadne.HexBytes `yaml:"aura_pub_key"`
	GrandpaPubKey   ariadne.HexBytes `yaml:"grandpa_pub_key"`
}

// Registration is a single registration of a stake pool. Pending
// registrations become active, or stop being active, at EffectiveAt.
type Registration struct {
	Name               string           `yaml:"name,omitempty"`
	MainchainPubKey    ariadne.HexBytes `yaml:"mainchain_pub_key"`
	MainchainSignature ariadne.HexBytes `yaml:"mainchain_signature"`
	SidechainPubKey    ariadne.HexBytes `yaml:"sidechain_pub_key"`
	SidechainSignature ariadne.HexBytes `yaml:"sidechain_signature"`
	RegistrationUtxo   ariadne.UtxoID   `yaml:"registration_utxo"`
	AuraPubKey         ariadne.HexBytes `yaml:"aura_pub_key"`
	GrandpaPubKey      ariadne.HexBytes `yaml:"grandpa_pub_key"`
	Status             string           `yaml:"status,omitempty"`
	EffectiveAt        uint64           `yaml:"effective_at,omitempty"`
	Stake              *uint64          `yaml:"stake,omitempty"`
}

// Epoch is the data served for every epoch that maps to it in the rotation.
// An empty nonce is derived with the VRF when the source has a key.
type Epoch struct {
	DParameter    DParameter              `yaml:"d_parameter"`
	Permissioned  []PermissionedCandidate `yaml:"permissioned"`
	Registrations []Registration          `yaml:"registrations"`
	Nonce         ariadne.HexBytes        `yaml:"nonce,omitempty"`
}

// Rotation lists the epochs served round robin: epoch n gets entry n mod len
type Rotation struct {
	Epochs []Epoch `yaml:"epochs"`
}

// Load reads a rotation file
func Load(path string) (*Rotation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse reads a rotation from yaml
func Parse(b []byte) (*Rotation, error) {
	r := &Rotation{}
	if err := yaml.Unmarshal(b, r); err != nil {
		return nil, fmt.Errorf("mock: %w", err)
	}
	if len(r.Epochs) == 0 {
		return nil, ErrNoEpochs
	}
	for i, e := range r.Epochs {
		for j, reg := range e.Registrations {
			switch reg.Status {
			case "", StatusActive, StatusPendingActivation, StatusPendingDeregistration:
			default:
				return nil, fmt.Errorf("%w: epochs[%d].registrations[%d] %q", ErrUnknownStatus, i, j, reg.Status)
			}
			if len(reg.MainchainPubKey) != ariadne.StakePoolKeyLength {
				return nil, fmt.Errorf("mock: epochs[%d].registrations[%d]: mainchain_pub_key must be %d bytes",
					i, j, ariadne.StakePoolKeyLength)
			}
		}
	}
	return r, nil
}

// visible is true if the registration is active in epoch
func (r Registration) visible(epoch uint64) bool {
	switch r.Status {
	case StatusPendingActivation:
		return epoch >= r.EffectiveAt
	case StatusPendingDeregistration:
		return epoch < r.EffectiveAt
	}
	return true
}

func (r Registration) String() string {
	name := r.Name
	if name == "" {
		name = "<unnamed>"
	}
	status := "active"
	switch r.Status {
	case StatusPendingActivation:
		status = fmt.Sprintf("active at %d", r.EffectiveAt)
	case StatusPendingDeregistration:
		status = fmt.Sprintf("active until %d", r.EffectiveAt)
	}
	return fmt.Sprintf("%s(%s, %s)", name, shortHex(r.SidechainPubKey), status)
}

func (p PermissionedCandidate) String() string {
	name := p.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("%s(%s)", name, shortHex(p.SidechainPubKey))
}

func shortHex(b ariadne.HexBytes) string {
	s := b.String()
	if len(s) <= 10 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}
