package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jmgilman/go/errors"
	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-tiered-cache/internal/cacheinfra"
)

// Config exposes the tier configuration for consumers of the cache package.
type Config struct {
	// Local sizes the process-local tier.
	Local LocalConfig

	// RemoteTTL is the expiration applied to remote entries. Negative values
	// store entries without expiration.
	RemoteTTL time.Duration

	// KeyPrefix is prepended to every remote key.
	KeyPrefix string
}

// LocalConfig mirrors the sturdyc options of the local tier.
type LocalConfig struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Local:     convertFromInternal(cacheinfra.DefaultConfig()),
		RemoteTTL: time.Hour,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if err := c.Local.Validate(); err != nil {
		return err
	}

	err := validation.ValidateStruct(&c,
		validation.Field(&c.KeyPrefix, validation.Length(0, 64)),
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "invalid cache configuration")
	}
	return nil
}

// Validate checks the local tier parameters.
func (c LocalConfig) Validate() error {
	return c.toInternal().Validate()
}

// NewLocalCache builds an empty local tier holding values of type V.
func NewLocalCache[V any](cfg LocalConfig) (LocalCache[V], error) {
	local, err := cacheinfra.NewSturdycLocal[V](cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return local, nil
}

// RedisRemoteOptions tunes the Redis remote tier.
type RedisRemoteOptions struct {
	// Prefix namespaces keys inside Redis, on top of Config.KeyPrefix.
	Prefix string

	// Envelope frames stored values with a write-time header.
	Envelope bool
}

// NewRedisRemote wraps a Redis client as the remote tier.
func NewRedisRemote(client redis.UniversalClient, cfg Config, opts RedisRemoteOptions) RemoteCache {
	return cacheinfra.NewRedisRemote(client,
		cacheinfra.WithRedisPrefix(opts.Prefix),
		cacheinfra.WithRedisDefaultTTL(cfg.RemoteTTL),
		cacheinfra.WithEnvelope(opts.Envelope),
	)
}

func (c LocalConfig) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) LocalConfig {
	return LocalConfig{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
