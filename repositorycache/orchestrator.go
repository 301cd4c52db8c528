package repositorycache

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jmgilman/go/errors"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-tiered-cache/cache"
)

// Tiers groups the collaborators composed by an Orchestrator.
type Tiers[K comparable, V any] struct {
	// Store is the source of truth. Required.
	Store cache.Store[K, V]

	// Remote is the shared tier. Required.
	Remote cache.RemoteCache

	// Local is the process-local tier. It must not be shared with another
	// orchestrator. Required.
	Local cache.LocalCache[cache.Entry[V]]

	// Codec converts values to remote bytes. Default: cache.JSONCodec.
	Codec cache.Codec[V]
}

// Orchestrator fronts a Store with a local and a remote cache tier.
//
// Reads go local, then remote, then store, populating the faster tiers on the
// way back. Writes go to the store first and are then propagated to the remote
// and local tiers. Cache-tier failures degrade to the next tier and are never
// returned to callers.
type Orchestrator[K comparable, V any] struct {
	store  cache.Store[K, V]
	remote cache.RemoteCache
	local  cache.LocalCache[cache.Entry[V]]
	codec  cache.Codec[V]

	keys      cache.KeySerializer
	namespace string
	remoteTTL time.Duration
	now       func() time.Time

	flights singleflight.Group
	stats   *counters
	logger  *slog.Logger
}

type loadResult[V any] struct {
	value V
	found bool
}

// New builds an Orchestrator over tiers.
func New[K comparable, V any](tiers Tiers[K, V], opts ...Option) (*Orchestrator[K, V], error) {
	switch {
	case tiers.Store == nil:
		return nil, errors.New(errors.CodeInvalidConfig, "repositorycache: store is required")
	case tiers.Remote == nil:
		return nil, errors.New(errors.CodeInvalidConfig, "repositorycache: remote cache is required")
	case tiers.Local == nil:
		return nil, errors.New(errors.CodeInvalidConfig, "repositorycache: local cache is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if tiers.Codec == nil {
		tiers.Codec = cache.NewJSONCodec[V]()
	}
	if o.namespace == "" {
		o.namespace = namespaceFor[V]()
	}

	return &Orchestrator[K, V]{
		store:     tiers.Store,
		remote:    tiers.Remote,
		local:     tiers.Local,
		codec:     tiers.Codec,
		keys:      o.keys,
		namespace: o.namespace,
		remoteTTL: o.remoteTTL,
		now:       o.now,
		stats:     newCounters(),
		logger: o.logger.With(
			"component", "repositorycache",
			"namespace", o.namespace,
			"instance", uuid.NewString(),
		),
	}, nil
}

// Load returns the value for key and whether it exists.
//
// A local hit returns without I/O and without checking the other tiers, so a
// value may lag the store until it is invalidated or expires. Concurrent
// misses for the same key share a single flight through the remote tier and
// the store. A caller whose ctx ends stops waiting; the flight continues for
// the remaining callers.
//
// An absent key is reported as found == false with a nil error. Store failures
// other than not-found are returned.
func (o *Orchestrator[K, V]) Load(ctx context.Context, key K) (V, bool, error) {
	var zero V
	rk := o.Key(key)

	if entry, ok := o.local.Get(rk); ok {
		o.stats.localHits.Inc()
		return entry.Value, true, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := o.flights.DoChan(rk, func() (any, error) {
		return o.fill(flightCtx, key, rk)
	})

	select {
	case res := <-ch:
		if res.Shared {
			o.stats.coalesced.Inc()
		}
		if res.Err != nil {
			return zero, false, res.Err
		}
		r := res.Val.(loadResult[V])
		return r.value, r.found, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (o *Orchestrator[K, V]) fill(ctx context.Context, key K, rk string) (loadResult[V], error) {
	// a previous flight may have finished between the fast path and the gate
	if entry, ok := o.local.Get(rk); ok {
		o.stats.localHits.Inc()
		return loadResult[V]{value: entry.Value, found: true}, nil
	}

	if value, ok := o.readRemote(ctx, rk); ok {
		o.stats.remoteHits.Inc()
		o.setLocal(rk, value)
		return loadResult[V]{value: value, found: true}, nil
	}

	o.stats.storeLoads.Inc()
	value, err := o.store.Get(ctx, key)
	if err != nil {
		if cache.IsNotFound(err) {
			o.stats.notFound.Inc()
			o.logger.Debug("key not found in store", "key", rk)
			return loadResult[V]{}, nil
		}
		return loadResult[V]{}, o.storeError("get", rk, err)
	}

	o.writeRemote(ctx, rk, value)
	o.setLocal(rk, value)

	return loadResult[V]{value: value, found: true}, nil
}

// Put replaces the stored value for key and propagates it to both tiers.
// The store is written first; when it fails, including when key does not
// exist, the error is returned and no tier is touched.
//
// Both tiers cache value exactly as given, so a value that embeds its own
// key must carry key already; a store that rewrites fields on update is not
// consulted again before the next invalidation.
func (o *Orchestrator[K, V]) Put(ctx context.Context, key K, value V) error {
	rk := o.Key(key)

	if err := o.store.Update(ctx, key, value); err != nil {
		return o.storeError("update", rk, err)
	}

	o.writeRemote(ctx, rk, value)
	o.setLocal(rk, value)
	return nil
}

// Upsert behaves like Put but creates the entity when key is absent. value is
// cached as given.
func (o *Orchestrator[K, V]) Upsert(ctx context.Context, key K, value V) error {
	rk := o.Key(key)

	if err := o.store.Upsert(ctx, key, value); err != nil {
		return o.storeError("upsert", rk, err)
	}

	o.writeRemote(ctx, rk, value)
	o.setLocal(rk, value)
	return nil
}

// Invalidate deletes key from the store and then from both tiers.
// Deleting an absent key returns a not-found error.
func (o *Orchestrator[K, V]) Invalidate(ctx context.Context, key K) error {
	rk := o.Key(key)

	if err := o.store.Delete(ctx, key); err != nil {
		return o.storeError("delete", rk, err)
	}

	if err := o.remote.Delete(ctx, rk); err != nil {
		o.stats.writeThroughFailure.Inc()
		o.logger.Warn("remote cache delete failed", "key", rk, "tier", "remote", "error", err)
	}
	o.local.Delete(rk)
	return nil
}

// Create inserts value and returns the key assigned by the store. Nothing is
// cached until the first Load.
func (o *Orchestrator[K, V]) Create(ctx context.Context, value V) (K, error) {
	key, err := o.store.Create(ctx, value)
	if err != nil {
		var zero K
		return zero, o.storeError("create", "", err)
	}
	return key, nil
}

// List reads a page of values straight from the store. Lists are not cached.
func (o *Orchestrator[K, V]) List(ctx context.Context, filter cache.Predicate, offset, limit int) ([]V, error) {
	values, err := o.store.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, o.storeError("list", "", err)
	}
	return values, nil
}

// Key returns the cache key used for key in both tiers.
func (o *Orchestrator[K, V]) Key(key K) string {
	return o.keys.SerializeKey(o.namespace, key)
}

// Stats returns a snapshot of the orchestrator counters.
func (o *Orchestrator[K, V]) Stats() Stats {
	return o.stats.snapshot()
}

func (o *Orchestrator[K, V]) readRemote(ctx context.Context, rk string) (V, bool) {
	var zero V

	data, found, err := o.remote.Get(ctx, rk)
	if err != nil {
		o.stats.remoteErrors.Inc()
		o.logger.Warn("remote cache read failed, falling back to store", "key", rk, "tier", "remote", "error", err)
		return zero, false
	}
	if !found {
		return zero, false
	}

	value, err := o.codec.Decode(data)
	if err != nil {
		o.stats.decodeErrors.Inc()
		o.logger.Warn("remote cache value not decodable, falling back to store", "key", rk, "tier", "remote", "error", err)
		return zero, false
	}
	return value, true
}

func (o *Orchestrator[K, V]) writeRemote(ctx context.Context, rk string, value V) {
	data, err := o.codec.Encode(value)
	if err != nil {
		o.stats.writeThroughFailure.Inc()
		o.logger.Warn("cache value not encodable", "key", rk, "tier", "remote", "error", err)
		return
	}

	if err := o.remote.Set(ctx, rk, data, o.remoteTTL); err != nil {
		o.stats.writeThroughFailure.Inc()
		o.logger.Warn("remote cache write failed", "key", rk, "tier", "remote", "error", err)
	}
}

func (o *Orchestrator[K, V]) setLocal(rk string, value V) {
	o.local.Set(rk, cache.Entry[V]{Key: rk, Value: value, StoredAt: o.now()})
}

// storeError passes domain errors through and wraps everything else as
// a store outage.
func (o *Orchestrator[K, V]) storeError(op, rk string, err error) error {
	switch errors.GetCode(err) {
	case errors.CodeNotFound, errors.CodeAlreadyExists, errors.CodeInvalidInput, errors.CodeConflict:
		return err
	}

	o.logger.Error("backing store call failed", "op", op, "key", rk, "error", err)
	return cache.StoreUnavailable(op, err)
}

func namespaceFor[V any]() string {
	t := reflect.TypeFor[V]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := t.Name()
	if name == "" {
		name = t.String()
	}
	return toSnake(name)
}
