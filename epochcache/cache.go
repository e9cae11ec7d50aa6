// Package epochcache memoizes a DataSource. Only data for settlement epochs
// the mainchain can no longer roll back is kept.
package epochcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
)

// DefaultFetchTimeout bounds a fetch shared by concurrent callers
const DefaultFetchTimeout = time.Minute

type paramsKey struct {
	epoch        uint64
	dParam       ariadne.PolicyID
	permissioned ariadne.PolicyID
}

func (k paramsKey) String() string {
	return fmt.Sprintf("params/%d/%s/%s", k.epoch, k.dParam.Hex(), k.permissioned.Hex())
}

type candidatesKey struct {
	epoch   uint64
	address ariadne.MainchainAddress
}

func (k candidatesKey) String() string {
	return fmt.Sprintf("candidates/%d/%s", k.epoch, k.address)
}

type nonceKey uint64

func (k nonceKey) String() string {
	return fmt.Sprintf("nonce/%d", uint64(k))
}

// Cache is a DataSource. Values it returns are shared between callers and
// must not be modified.
type Cache struct {
	src    ariadne.DataSource
	stable ariadne.StableEpochSource
	logger ariadne.Logger

	params     *lru.Cache
	candidates *lru.Cache
	nonces     *lru.Cache

	flight singleflight.Group

	// shared fetches give up after this long
	fetchTimeout time.Duration

	// must be held for latestStable and haveStable
	mu           sync.Mutex
	latestStable uint64
	haveStable   bool
}

// New wraps src. If src does not implement ariadne.StableEpochSource nothing
// is ever cached, but concurrent identical requests are still collapsed.
func New(src ariadne.DataSource, config *ariadne.Config, logger ariadne.Logger) (*Cache, error) {

	if logger == nil {
		logger = ariadne.NoopLogger{}
	}
	c := &Cache{src: src, logger: logger, fetchTimeout: DefaultFetchTimeout}
	c.stable, _ = src.(ariadne.StableEpochSource)

	var err error
	if c.params, err = lru.New(config.ParametersCacheSize); err != nil {
		return nil, fmt.Errorf("parameters cache: %w", err)
	}
	if c.candidates, err = lru.New(config.CandidatesCacheSize); err != nil {
		return nil, fmt.Errorf("candidates cache: %w", err)
	}
	if c.nonces, err = lru.New(config.NonceCacheSize); err != nil {
		return nil, fmt.Errorf("nonce cache: %w", err)
	}
	return c, nil
}

// fetch returns the cached value for key, or calls get once for all
// concurrent callers. get reports false for values that must not be cached.
// The shared call is not tied to any one caller's ctx, so a caller giving up
// does not fail the others. Each caller still returns when its own ctx is
// done.
func fetch[V any](
	ctx context.Context, c *Cache, cache *lru.Cache, key fmt.Stringer, epoch uint64,
	get func(ctx context.Context) (V, bool, error),
) (V, error) {

	var zero V
	if v, ok := cache.Get(key); ok {
		return v.(V), nil
	}

	ch := c.flight.DoChan(key.String(), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
		defer cancel()

		v, keep, err := get(fctx)
		if err != nil {
			return nil, err
		}
		if keep && c.isStable(fctx, epoch) {
			cache.Add(key, v)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			c.logger.Trace("epochcache: shared fetch", "key", key.String())
		}
		return res.Val.(V), nil
	}
}

// isStable is true if the settlement epoch used for epoch is at or below the
// latest stable epoch. The source is asked again only for newer epochs.
func (c *Cache) isStable(ctx context.Context, epoch uint64) bool {
	if c.stable == nil {
		return false
	}
	dataEpoch, err := c.src.DataEpoch(ctx, epoch)
	if err != nil {
		c.logger.Debug("epochcache: no data epoch", "epoch", epoch, "err", err)
		return false
	}

	c.mu.Lock()
	latest, have := c.latestStable, c.haveStable
	c.mu.Unlock()
	if have && dataEpoch <= latest {
		return true
	}

	// not under mu, this is a round trip to the source
	queried, ok, err := c.stable.LatestStableEpoch(ctx)
	if err != nil {
		c.logger.Debug("epochcache: latest stable epoch unavailable", "err", err)
		return false
	}
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.haveStable || queried > c.latestStable {
		c.latestStable, c.haveStable = queried, true
	}
	return dataEpoch <= c.latestStable
}

func (c *Cache) AriadneParameters(
	ctx context.Context, epoch uint64, dParamPolicy, permissionedPolicy ariadne.PolicyID,
) (*ariadne.AriadneParameters, error) {

	key := paramsKey{epoch: epoch, dParam: dParamPolicy, permissioned: permissionedPolicy}
	return fetch(ctx, c, c.params, key, epoch,
		func(ctx context.Context) (*ariadne.AriadneParameters, bool, error) {
			p, err := c.src.AriadneParameters(ctx, epoch, dParamPolicy, permissionedPolicy)
			return p, p != nil, err
		})
}

func (c *Cache) CandidateRegistrations(
	ctx context.Context, epoch uint64, address ariadne.MainchainAddress,
) ([]ariadne.CandidateRegistrations, error) {

	key := candidatesKey{epoch: epoch, address: address}
	return fetch(ctx, c, c.candidates, key, epoch,
		func(ctx context.Context) ([]ariadne.CandidateRegistrations, bool, error) {
			rs, err := c.src.CandidateRegistrations(ctx, epoch, address)
			return rs, true, err
		})
}

// EpochNonce caches only nonces that were found
func (c *Cache) EpochNonce(ctx context.Context, epoch uint64) (ariadne.EpochNonce, error) {
	return fetch(ctx, c, c.nonces, nonceKey(epoch), epoch,
		func(ctx context.Context) (ariadne.EpochNonce, bool, error) {
			n, err := c.src.EpochNonce(ctx, epoch)
			return n, n != nil, err
		})
}

func (c *Cache) DataEpoch(ctx context.Context, epoch uint64) (uint64, error) {
	return c.src.DataEpoch(ctx, epoch)
}

// LatestStableEpoch forwards to the wrapped source. ok is false if it can not
// tell.
func (c *Cache) LatestStableEpoch(ctx context.Context) (uint64, bool, error) {
	if c.stable == nil {
		return 0, false, nil
	}
	return c.stable.LatestStableEpoch(ctx)
}

// Purge drops every cached entry
func (c *Cache) Purge() {
	c.params.Purge()
	c.candidates.Purge()
	c.nonces.Purge()
}

// Len reports the number of cached parameters, candidate sets and nonces
func (c *Cache) Len() (int, int, int) {
	return c.params.Len(), c.candidates.Len(), c.nonces.Len()
}
