package cache

import (
	"context"
	"time"
)

// KeySerializer builds the remote cache key for an entity key within a namespace.
// It is responsible for producing stable keys across processes, since the
// remote tier is shared by every instance of the service.
type KeySerializer interface {
	SerializeKey(namespace string, key any) string
}

// Predicate filters List results. Each entry maps a field name to a substring
// that the field must contain. An empty predicate matches every entity.
type Predicate map[string]string

// Store is the durable source of truth fronted by the cache tiers.
// Implementations must not cache on their own.
//
// Get, Update and Delete return an error for which IsNotFound reports true when
// the key is absent. Any other failure should be reported as a StoreUnavailable
// error so callers can tell the two apart.
type Store[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, error)
	Create(ctx context.Context, value V) (K, error)
	Update(ctx context.Context, key K, value V) error
	Upsert(ctx context.Context, key K, value V) error
	Delete(ctx context.Context, key K) error
	List(ctx context.Context, predicate Predicate, offset, limit int) ([]V, error)
}

// RemoteCache is the shared byte cache reachable over the network.
// It gives no consistency guarantee and may be unavailable at any time.
//
// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
// A zero ttl on Set selects the implementation default.
type RemoteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// LocalCache is the process-local tier. None of its operations may block on I/O.
type LocalCache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Delete(key string)
	Len() int
}

// Entry is what the local tier holds for a key.
type Entry[V any] struct {
	Key      string
	Value    V
	StoredAt time.Time
}
