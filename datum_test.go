package ariadne_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
	"github.com/RobustRoundRobin/go-ariadne/plutus"
)

func registrationDatum(t *testing.T, c candidate) *ariadne.RegisterValidatorDatum {
	r := c.register(t, genesis, 7, 1)
	d := &ariadne.RegisterValidatorDatum{
		StakePoolKey:       c.poolKey(t),
		MainchainSignature: r.MainchainSignature,
		AuthorityKey:       r.AuthorityKey,
		SidechainSignature: r.SidechainSignature,
		ConsumedUtxo:       r.ConsumedUtxo,
		AuraKey:            r.AuraKey,
		GrandpaKey:         r.GrandpaKey,
	}
	d.OwnPkh[0] = 0x99
	return d
}

func TestRegisterValidatorDatumLegacy(t *testing.T) {
	require := require.New(t)

	c := newCandidate(t, 1)
	d := registrationDatum(t, c)

	b, err := plutus.Encode(d.ToDatum())
	require.NoError(err)
	pd, err := plutus.Decode(b)
	require.NoError(err)

	got, err := ariadne.DecodeRegisterValidatorDatum(pd)
	require.NoError(err)
	require.Equal(d, got)

	// what was read off chain validates
	info := ariadne.UtxoInfo{UtxoID: ariadne.UtxoID{TxHash: ariadne.TxHash{0x01}}, BlockNumber: 3}
	r := got.RegistrationData(info, []ariadne.UtxoID{{TxHash: ariadne.TxHash{0x05}}, got.ConsumedUtxo})

	v := ariadne.NewRegistrationValidator(suite, genesis, nil)
	raw := ariadne.CandidateRegistrations{
		StakePoolKey: got.StakePoolKey, Registrations: []ariadne.RegistrationData{r}, Stake: stake(10)}
	active, ok := v.Validate(raw)
	require.True(ok)
	require.Equal(info, active.UtxoInfo)
}

func TestRegisterValidatorDatumVersioned(t *testing.T) {
	require := require.New(t)

	c := newCandidate(t, 2)
	d := registrationDatum(t, c)

	legacy := d.ToDatum().(plutus.Constr)
	appendix := plutus.NewConstr(0,
		legacy.Fields[0], legacy.Fields[1], legacy.Fields[2], legacy.Fields[3], legacy.Fields[5], legacy.Fields[6])
	versioned := plutus.List{plutus.Bytes(d.OwnPkh[:]), appendix, plutus.NewInt(0)}

	got, err := ariadne.DecodeRegisterValidatorDatum(versioned)
	require.NoError(err)
	require.Equal(d, got)

	versioned[2] = plutus.NewInt(1)
	_, err = ariadne.DecodeRegisterValidatorDatum(versioned)
	require.ErrorIs(err, ariadne.ErrUnknownDatumVersion)
}

func TestRegisterValidatorDatumMalformed(t *testing.T) {
	assert := assert.New(t)

	d := registrationDatum(t, newCandidate(t, 1))
	legacy := d.ToDatum().(plutus.Constr)

	_, err := ariadne.DecodeRegisterValidatorDatum(plutus.NewConstr(0, legacy.Fields[:6]...))
	assert.ErrorIs(err, plutus.ErrUnexpectedShape)

	short := plutus.NewConstr(0, append([]plutus.Data{}, legacy.Fields...)...)
	short.Fields[4] = plutus.Bytes{0x01}
	_, err = ariadne.DecodeRegisterValidatorDatum(short)
	assert.ErrorIs(err, ariadne.ErrBadHexLength)

	_, err = ariadne.DecodeRegisterValidatorDatum(plutus.NewInt(1))
	assert.Error(err)
}

func TestDecodeDParameterDatum(t *testing.T) {
	tests := []struct {
		name string
		data plutus.Data
		want ariadne.DParameter
		err  error
	}{
		{"list", plutus.List{plutus.NewInt(3), plutus.NewInt(5)}, ariadne.DParameter{3, 5}, nil},
		{"constr", plutus.NewConstr(0, plutus.NewInt(0), plutus.NewInt(1)), ariadne.DParameter{0, 1}, nil},
		{"versioned", plutus.List{plutus.NewConstr(0), plutus.List{plutus.NewInt(2), plutus.NewInt(2)}, plutus.NewInt(0)},
			ariadne.DParameter{2, 2}, nil},
		{"future version", plutus.List{plutus.NewConstr(0), plutus.List{plutus.NewInt(2), plutus.NewInt(2)}, plutus.NewInt(3)},
			ariadne.DParameter{}, ariadne.ErrUnknownDatumVersion},
		{"too big", plutus.List{plutus.NewInt(70000), plutus.NewInt(1)}, ariadne.DParameter{}, plutus.ErrUnexpectedShape},
		{"one item", plutus.List{plutus.NewInt(1)}, ariadne.DParameter{}, plutus.ErrUnexpectedShape},
		{"wrong constr", plutus.NewConstr(1, plutus.NewInt(0), plutus.NewInt(1)), ariadne.DParameter{}, plutus.ErrUnexpectedShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ariadne.DecodeDParameterDatum(tt.data)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}

	dp := ariadne.DParameter{NumPermissionedSeats: 4, NumRegisteredSeats: 9}
	got, err := ariadne.DecodeDParameterDatum(dp.ToDatum())
	require.NoError(t, err)
	assert.Equal(t, dp, got)
}

func TestDecodePermissionedDatum(t *testing.T) {
	require := require.New(t)

	raws := []ariadne.RawPermissionedCandidate{newCandidate(t, 1).raw(), newCandidate(t, 2).raw()}
	b, err := plutus.Encode(ariadne.PermissionedDatum(raws))
	require.NoError(err)
	pd, err := plutus.Decode(b)
	require.NoError(err)

	got, err := ariadne.DecodePermissionedDatum(pd)
	require.NoError(err)
	require.Equal(raws, got)

	versioned := plutus.List{plutus.NewConstr(0), ariadne.PermissionedDatum(raws), plutus.NewInt(0)}
	got, err = ariadne.DecodePermissionedDatum(versioned)
	require.NoError(err)
	require.Equal(raws, got)

	got, err = ariadne.DecodePermissionedDatum(plutus.List{})
	require.NoError(err)
	require.Empty(got)

	_, err = ariadne.DecodePermissionedDatum(plutus.List{plutus.List{plutus.Bytes{1}, plutus.Bytes{2}}})
	require.ErrorIs(err, plutus.ErrUnexpectedShape)
}
