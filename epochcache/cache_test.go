package epochcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
)

type countingSource struct {
	calls atomic.Int32

	stable    uint64
	stableOK  bool
	stableAsk atomic.Int32
	// when set LatestStableEpoch signals entered then waits for stableGate
	stableGate    chan struct{}
	stableEntered chan struct{}

	nonce ariadne.EpochNonce
	err   error
	gate  chan struct{}
}

func (s *countingSource) wait() {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
}

func (s *countingSource) AriadneParameters(
	ctx context.Context, epoch uint64, _, _ ariadne.PolicyID) (*ariadne.AriadneParameters, error) {
	s.wait()
	if s.err != nil {
		return nil, s.err
	}
	return &ariadne.AriadneParameters{DParameter: ariadne.DParameter{NumRegisteredSeats: uint16(epoch)}}, nil
}

func (s *countingSource) CandidateRegistrations(
	ctx context.Context, epoch uint64, _ ariadne.MainchainAddress) ([]ariadne.CandidateRegistrations, error) {
	s.wait()
	return []ariadne.CandidateRegistrations{{StakePoolKey: ariadne.StakePoolKey{byte(epoch)}}}, s.err
}

func (s *countingSource) EpochNonce(ctx context.Context, epoch uint64) (ariadne.EpochNonce, error) {
	s.wait()
	return s.nonce, s.err
}

func (s *countingSource) DataEpoch(ctx context.Context, epoch uint64) (uint64, error) {
	return ariadne.OffsetDataEpoch(epoch, 2)
}

func (s *countingSource) LatestStableEpoch(ctx context.Context) (uint64, bool, error) {
	s.stableAsk.Add(1)
	if s.stableGate != nil {
		s.stableEntered <- struct{}{}
		<-s.stableGate
	}
	return s.stable, s.stableOK, nil
}

func newCache(t *testing.T, src ariadne.DataSource) *Cache {
	c, err := New(src, ariadne.NewConfig(), nil)
	require.NoError(t, err)
	return c
}

func TestCachesStableEpochs(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	src := &countingSource{stable: 10, stableOK: true, nonce: ariadne.EpochNonce{1}}
	c := newCache(t, src)

	for i := 0; i < 3; i++ {
		p, err := c.AriadneParameters(ctx, 12, ariadne.PolicyID{}, ariadne.PolicyID{})
		require.NoError(err)
		require.Equal(uint16(12), p.DParameter.NumRegisteredSeats)

		rs, err := c.CandidateRegistrations(ctx, 12, "addr")
		require.NoError(err)
		require.Len(rs, 1)

		n, err := c.EpochNonce(ctx, 12)
		require.NoError(err)
		require.Equal(ariadne.EpochNonce{1}, n)
	}
	require.Equal(int32(3), src.calls.Load())
	// the stable epoch is remembered
	require.Equal(int32(1), src.stableAsk.Load())

	params, candidates, nonces := c.Len()
	require.Equal([]int{1, 1, 1}, []int{params, candidates, nonces})

	// keys include every argument
	_, err := c.AriadneParameters(ctx, 12, ariadne.PolicyID{1}, ariadne.PolicyID{})
	require.NoError(err)
	_, err = c.CandidateRegistrations(ctx, 12, "other")
	require.NoError(err)
	require.Equal(int32(5), src.calls.Load())

	c.Purge()
	_, err = c.EpochNonce(ctx, 12)
	require.NoError(err)
	require.Equal(int32(6), src.calls.Load())
}

func TestUnstableEpochsNotCached(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	src := &countingSource{stable: 10, stableOK: true}
	c := newCache(t, src)

	// data epoch 11 is newer than the stable epoch
	for i := 0; i < 2; i++ {
		_, err := c.CandidateRegistrations(ctx, 13, "addr")
		require.NoError(err)
	}
	require.Equal(int32(2), src.calls.Load())
	require.Equal(int32(2), src.stableAsk.Load())

	// the chain moves on
	src.stable = 11
	for i := 0; i < 2; i++ {
		_, err := c.CandidateRegistrations(ctx, 13, "addr")
		require.NoError(err)
	}
	require.Equal(int32(3), src.calls.Load())

	// and older epochs no longer need asking
	_, err := c.CandidateRegistrations(ctx, 5, "addr")
	require.NoError(err)
	require.Equal(int32(3), src.stableAsk.Load())

	// data epoch underflow is never cached
	for i := 0; i < 2; i++ {
		_, err := c.CandidateRegistrations(ctx, 1, "addr")
		require.NoError(err)
	}
	require.Equal(int32(6), src.calls.Load())
}

func TestNoStableEpochSource(t *testing.T) {
	ctx := context.Background()

	src := &countingSource{stable: 100, stableOK: true}
	// hide LatestStableEpoch
	c := newCache(t, struct{ ariadne.DataSource }{src})

	for i := 0; i < 2; i++ {
		_, err := c.AriadneParameters(ctx, 3, ariadne.PolicyID{}, ariadne.PolicyID{})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), src.calls.Load())

	_, ok, err := c.LatestStableEpoch(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestErrorsAndMissingNoncesNotCached(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	boom := errors.New("boom")
	src := &countingSource{stable: 10, stableOK: true, err: boom}
	c := newCache(t, src)

	_, err := c.EpochNonce(ctx, 4)
	require.ErrorIs(err, boom)
	_, err = c.AriadneParameters(ctx, 4, ariadne.PolicyID{}, ariadne.PolicyID{})
	require.ErrorIs(err, boom)

	src.err = nil
	for i := 0; i < 2; i++ {
		n, err := c.EpochNonce(ctx, 4)
		require.NoError(err)
		require.Nil(n)
	}
	require.Equal(int32(4), src.calls.Load())

	_, _, nonces := c.Len()
	require.Zero(nonces)
}

func TestConcurrentRequestsShareOneFetch(t *testing.T) {
	ctx := context.Background()

	src := &countingSource{stable: 10, stableOK: true, gate: make(chan struct{})}
	c := newCache(t, src)

	const n = 8
	var wg sync.WaitGroup
	results := make([]*ariadne.AriadneParameters, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.AriadneParameters(ctx, 7, ariadne.PolicyID{}, ariadne.PolicyID{})
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}

	// a different key gets its own fetch
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.EpochNonce(ctx, 7)
	}()

	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	<-done

	assert.Equal(t, int32(2), src.calls.Load())
	for _, p := range results {
		assert.Same(t, results[0], p)
	}
}

func TestNewRejectsBadSizes(t *testing.T) {
	config := ariadne.NewConfig()
	config.NonceCacheSize = 0
	_, err := New(&countingSource{}, config, nil)
	assert.Error(t, err)
}

func TestCallerCancelDoesNotFailSharedFetch(t *testing.T) {
	require := require.New(t)

	src := &countingSource{stable: 10, stableOK: true, gate: make(chan struct{})}
	c := newCache(t, src)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.AriadneParameters(first, 7, ariadne.PolicyID{}, ariadne.PolicyID{})
		firstErr <- err
	}()

	type result struct {
		p   *ariadne.AriadneParameters
		err error
	}
	second := make(chan result, 1)
	go func() {
		p, err := c.AriadneParameters(context.Background(), 7, ariadne.PolicyID{}, ariadne.PolicyID{})
		second <- result{p, err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	require.ErrorIs(<-firstErr, context.Canceled)

	close(src.gate)
	r := <-second
	require.NoError(r.err)
	require.Equal(uint16(7), r.p.DParameter.NumRegisteredSeats)
	require.Equal(int32(1), src.calls.Load())

	// and the shared result was cached
	_, err := c.AriadneParameters(context.Background(), 7, ariadne.PolicyID{}, ariadne.PolicyID{})
	require.NoError(err)
	require.Equal(int32(1), src.calls.Load())
}

func TestStableQueryDoesNotBlockKnownStableEpochs(t *testing.T) {
	ctx := context.Background()

	src := &countingSource{
		stable: 20, stableOK: true, stableGate: make(chan struct{}), stableEntered: make(chan struct{})}
	c := newCache(t, src)
	c.latestStable, c.haveStable = 10, true

	newer := make(chan bool, 1)
	go func() { newer <- c.isStable(ctx, 20) }()
	<-src.stableEntered

	known := make(chan bool, 1)
	go func() { known <- c.isStable(ctx, 12) }()
	select {
	case ok := <-known:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("known stable epoch waited for the source")
	}

	close(src.stableGate)
	assert.True(t, <-newer)
	c.mu.Lock()
	assert.Equal(t, uint64(20), c.latestStable)
	c.mu.Unlock()
}
