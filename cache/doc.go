// Package cache defines the tiers and collaborators composed by the cache orchestrator.
//
// # Overview
//
// The package exports the contracts the orchestrator depends on and their default
// implementations:
//
//   - Store: the durable source of truth (get, create, update, upsert, delete, list)
//   - RemoteCache: the shared byte cache, reachable over the network
//   - LocalCache: the process-local tier, never blocking on I/O
//   - Codec: converts values to and from remote cache bytes
//   - KeySerializer: builds stable remote keys from a namespace and an entity key
//
// # Building tiers
//
//	cfg := cache.DefaultConfig()
//	local, err := cache.NewLocalCache[cache.Entry[Book]](cfg.Local)
//	remote := cache.NewRedisRemote(redisClient, cfg, cache.RedisRemoteOptions{})
//
// The local tier is backed by sturdyc and is bounded by Config.Local.Capacity and
// Config.Local.TTL. The remote tier is backed by Redis; entries expire after
// Config.RemoteTTL.
//
// # Wire format
//
// JSONCodec writes plain JSON. Decoding tolerates framing bytes a transport may
// place around the payload: when the input is not a JSON document as a whole, the
// outermost object or array region that is valid JSON is decoded instead. Input
// without such a region fails with a decode error; a partially parsed value is
// never returned.
//
// # Keys
//
// The default KeySerializer renders "namespace_key", so book 7 is stored under
// "book_7". Keys must be stable across processes because every instance shares
// the remote tier; funcs and channels therefore only contribute their type.
//
// # Errors
//
// Errors carry codes from github.com/jmgilman/go/errors:
//
//   - NotFound (NOT_FOUND): the key is absent from the store
//   - StoreUnavailable (DATABASE_ERROR): a store call failed
//   - CacheUnavailable (NETWORK_ERROR): a remote cache call failed
//   - DecodeError (SCHEMA_VALIDATION_FAILED): remote bytes held no decodable value
//
// Only store errors are load-bearing. Cache-tier errors are recovered by the
// orchestrator and never reach its callers.
package cache
