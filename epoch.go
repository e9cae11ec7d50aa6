package ariadne

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrTimestampTooSmall = errors.New("timestamp before the first mainchain epoch")
	ErrEpochTooBig       = errors.New("epoch number exceeds the allowed range")
	ErrEpochTooSmall     = errors.New("epoch number before the first mainchain epoch")
	ErrSlotTooSmall      = errors.New("slot before the first mainchain slot")
	ErrEpochUnderflow    = errors.New("epoch too small for the data epoch offset")
	ErrBadEpochConfig    = errors.New("epoch durations must be non zero")
)

const mainchainSlotMillis = 1000

// MainchainEpochConfig describes mainchain time. Mainchain slots are one
// second long.
type MainchainEpochConfig struct {
	FirstEpochTimestampMillis uint64 `toml:",omitempty"`
	EpochDurationMillis       uint64 `toml:",omitempty"`
	FirstEpochNumber          uint32 `toml:",omitempty"`
	FirstSlotNumber           uint64 `toml:",omitempty"`
}

// SidechainEpochConfig describes sidechain time. Sidechain slot n starts at
// unix time n * SlotDurationMillis.
type SidechainEpochConfig struct {
	SlotDurationMillis uint64 `toml:",omitempty"`
	SlotsPerEpoch      uint64 `toml:",omitempty"`
}

// EpochConfig relates the two chains' epochs
type EpochConfig struct {
	Mainchain MainchainEpochConfig
	Sidechain SidechainEpochConfig
}

func (c MainchainEpochConfig) slotsPerEpoch() uint64 {
	return c.EpochDurationMillis / mainchainSlotMillis
}

// EpochsPassed counts whole mainchain epochs between the first epoch and ts
func (c MainchainEpochConfig) EpochsPassed(ts time.Time) (uint32, error) {
	if c.EpochDurationMillis == 0 {
		return 0, ErrBadEpochConfig
	}
	millis := ts.UnixMilli()
	if millis < 0 || uint64(millis) < c.FirstEpochTimestampMillis {
		return 0, ErrTimestampTooSmall
	}
	n := (uint64(millis) - c.FirstEpochTimestampMillis) / c.EpochDurationMillis
	if n > math.MaxInt32 {
		return 0, ErrEpochTooBig
	}
	return uint32(n), nil
}

// EpochForTimestamp is the mainchain epoch containing ts
func (c MainchainEpochConfig) EpochForTimestamp(ts time.Time) (uint32, error) {
	n, err := c.EpochsPassed(ts)
	if err != nil {
		return 0, err
	}
	if uint64(c.FirstEpochNumber)+uint64(n) > math.MaxUint32 {
		return math.MaxUint32, nil
	}
	return c.FirstEpochNumber + n, nil
}

// EpochTimestamp is the start of epoch, counted from epoch zero
func (c MainchainEpochConfig) EpochTimestamp(epoch uint32) time.Time {
	return time.UnixMilli(int64(c.FirstEpochTimestampMillis + c.EpochDurationMillis*uint64(epoch)))
}

// FirstSlotOfEpoch is the first mainchain slot of epoch
func (c MainchainEpochConfig) FirstSlotOfEpoch(epoch uint32) (uint64, error) {
	if epoch < c.FirstEpochNumber {
		return 0, ErrEpochTooSmall
	}
	return uint64(epoch-c.FirstEpochNumber)*c.slotsPerEpoch() + c.FirstSlotNumber, nil
}

// EpochForSlot is the mainchain epoch containing slot
func (c MainchainEpochConfig) EpochForSlot(slot uint64) (uint32, error) {
	if slot < c.FirstSlotNumber {
		return 0, ErrSlotTooSmall
	}
	spe := c.slotsPerEpoch()
	if spe == 0 {
		return 0, ErrBadEpochConfig
	}
	n := (slot - c.FirstSlotNumber) / spe
	if n > math.MaxUint32-uint64(c.FirstEpochNumber) {
		return 0, ErrEpochTooBig
	}
	return c.FirstEpochNumber + uint32(n), nil
}

// EpochStart is the start of sidechain epoch
func (c SidechainEpochConfig) EpochStart(epoch uint64) time.Time {
	return time.UnixMilli(int64(epoch * c.SlotsPerEpoch * c.SlotDurationMillis))
}

// MainchainEpochForSidechainEpoch is the mainchain epoch in progress when the
// sidechain epoch starts.
func (c EpochConfig) MainchainEpochForSidechainEpoch(sidechainEpoch uint64) (uint64, error) {
	if c.Sidechain.SlotsPerEpoch == 0 || c.Sidechain.SlotDurationMillis == 0 {
		return 0, ErrBadEpochConfig
	}
	e, err := c.Mainchain.EpochForTimestamp(c.Sidechain.EpochStart(sidechainEpoch))
	if err != nil {
		return 0, fmt.Errorf("sidechain epoch %d: %w", sidechainEpoch, err)
	}
	return uint64(e), nil
}

// OffsetDataEpoch is the settlement epoch whose data is used for epoch. The
// offset keeps selection on data that can no longer be rolled back.
func OffsetDataEpoch(epoch, offset uint64) (uint64, error) {
	if epoch < offset {
		return 0, fmt.Errorf("%w: epoch %d, offset %d", ErrEpochUnderflow, epoch, offset)
	}
	return epoch - offset, nil
}
