package ariadne_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
)

func TestValidatePermissioned(t *testing.T) {
	require := require.New(t)

	c := newCandidate(t, 3)
	p, err := ariadne.ValidatePermissioned(suite, c.raw())
	require.NoError(err)
	require.Equal(c.authorityKey(), p.AuthorityKey)

	raw := c.raw()
	raw.AuthorityKey = append([]byte{}, raw.AuthorityKey...)
	raw.AuthorityKey[0] = 0x04
	_, err = ariadne.ValidatePermissioned(suite, raw)
	require.True(errors.Is(err, ariadne.InvalidSidechainPubKey), "err %v", err)

	raw = c.raw()
	raw.AuraKey = raw.AuraKey[:16]
	_, err = ariadne.ValidatePermissioned(suite, raw)
	require.True(errors.Is(err, ariadne.InvalidAuraKey), "err %v", err)

	raw = c.raw()
	raw.GrandpaKey = make([]byte, 32)
	raw.GrandpaKey[0] = 2 // y = 2 is not on the curve
	_, err = ariadne.ValidatePermissioned(suite, raw)
	require.True(errors.Is(err, ariadne.InvalidGrandpaKey), "err %v", err)
}

func TestFilterPermissioned(t *testing.T) {
	assert := assert.New(t)

	a, b := newCandidate(t, 1), newCandidate(t, 2)
	bad := b.raw()
	bad.GrandpaKey = nil

	valid := ariadne.FilterPermissioned(suite,
		[]ariadne.RawPermissionedCandidate{b.raw(), bad, a.raw(), b.raw()}, &TestLogger{t})

	// order and duplicates are kept
	assert.Len(valid, 3)
	assert.Equal(b.authorityKey(), valid[0].AuthorityKey)
	assert.Equal(a.authorityKey(), valid[1].AuthorityKey)
	assert.Equal(b.authorityKey(), valid[2].AuthorityKey)

	assert.Empty(ariadne.FilterPermissioned(suite, nil, nil))
}
