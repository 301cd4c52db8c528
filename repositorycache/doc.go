// Package repositorycache provides a read-through, write-through cache
// orchestrator in front of a keyed entity store.
//
// # Overview
//
// An Orchestrator composes three collaborators from the cache package:
//
//   - a Store, the durable source of truth
//   - a RemoteCache shared by every process (Redis)
//   - a LocalCache owned by this orchestrator (sturdyc, in memory)
//
// # Basic Usage
//
//	local, err := cache.NewLocalCache[cache.Entry[books.Book]](cfg.Local)
//	if err != nil {
//		return err
//	}
//
//	orc, err := repositorycache.New(repositorycache.Tiers[int64, books.Book]{
//		Store:  bookStore,
//		Remote: cache.NewRedisRemote(redisClient, cfg, cache.RedisRemoteOptions{}),
//		Local:  local,
//	}, repositorycache.WithLogger(logger), repositorycache.WithRemoteTTL(cfg.RemoteTTL))
//
//	book, found, err := orc.Load(ctx, 7)
//
// The pkg/di container performs this wiring and builds a fresh local tier for
// every orchestrator it creates.
//
// # Reads
//
// Load checks the local tier first and returns a hit immediately. On a miss a
// per-key single flight reads the remote tier and, on a remote miss, the
// store. Values found in the store are written to the remote tier and then to
// the local tier. Concurrent misses for the same key issue at most one store
// read; misses for different keys never wait on each other.
//
// # Writes
//
// Put, Upsert and Invalidate always call the store first. Only after the store
// accepts the change is the remote tier updated (or deleted) and then the local
// tier. Create and List are served by the store alone.
//
// # Staleness
//
// A local entry is served until it expires, is evicted or is replaced through
// this orchestrator. Writes made directly to the store or to the remote tier by
// another process are not observed while the entry lives. A new orchestrator
// starts with an empty local tier and reads whatever the remote tier holds.
//
// # Error Handling
//
// Remote failures and undecodable remote values are logged, counted in Stats
// and treated as misses. Store failures are returned as StoreUnavailable
// errors; not-found, already-exists and invalid-input errors from the store
// are returned unchanged.
package repositorycache
