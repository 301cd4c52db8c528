package di

import (
	"log/slog"

	"github.com/jmgilman/go/errors"

	"github.com/goliatone/go-tiered-cache/cache"
	"github.com/goliatone/go-tiered-cache/repositorycache"
)

// Container holds the dependencies shared by every orchestrator of a process:
// the cache configuration, the key serializer, the remote tier and the logger.
// Each orchestrator built from it gets its own local tier.
type Container struct {
	config        cache.Config
	keySerializer cache.KeySerializer
	remote        cache.RemoteCache
	logger        *slog.Logger
}

// NewContainer validates config and returns a Container sharing remote.
// A nil logger discards.
func NewContainer(config cache.Config, remote cache.RemoteCache, logger *slog.Logger) (*Container, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if remote == nil {
		return nil, errors.New(errors.CodeInvalidConfig, "di: remote cache is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Container{
		config:        config,
		keySerializer: cache.NewDefaultKeySerializer(config.KeyPrefix),
		remote:        remote,
		logger:        logger,
	}, nil
}

// NewContainerWithDefaults uses cache.DefaultConfig.
func NewContainerWithDefaults(remote cache.RemoteCache, logger *slog.Logger) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), remote, logger)
}

// KeySerializer returns the shared key serializer.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Remote returns the shared remote tier.
func (c *Container) Remote() cache.RemoteCache {
	return c.remote
}

// Config returns a copy of the cache configuration.
func (c *Container) Config() cache.Config {
	return c.config
}

// NewOrchestrator builds an orchestrator over store with a fresh local tier.
// opts are applied after the container defaults.
//
// Go methods cannot have type parameters, so this is a package-level function:
//
//	books, err := di.NewOrchestrator[int64, books.Book](container, store)
func NewOrchestrator[K comparable, V any](c *Container, store cache.Store[K, V], opts ...repositorycache.Option) (*repositorycache.Orchestrator[K, V], error) {
	local, err := cache.NewLocalCache[cache.Entry[V]](c.config.Local)
	if err != nil {
		return nil, err
	}

	defaults := []repositorycache.Option{
		repositorycache.WithLogger(c.logger),
		repositorycache.WithKeySerializer(c.keySerializer),
		repositorycache.WithRemoteTTL(c.config.RemoteTTL),
	}

	return repositorycache.New(repositorycache.Tiers[K, V]{
		Store:  store,
		Remote: c.remote,
		Local:  local,
	}, append(defaults, opts...)...)
}
