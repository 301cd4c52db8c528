package cacheinfra

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jmgilman/go/errors"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc backed local tier.
type Config struct {
	// Capacity defines the maximum number of entries the local tier holds.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of shards for concurrent access.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL is how long a local entry is served before it is considered expired.
	// Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the tier reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often expired entries are swept.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Nanosecond)),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "invalid local cache configuration")
	}
	return nil
}

// ToSturdycOptions maps the optional parameters to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// SturdycLocal is an in-process tier backed by a sharded sturdyc client.
// Every call is served from memory; nothing here performs I/O.
type SturdycLocal[T any] struct {
	client *sturdyc.Client[T]
}

// NewSturdycLocal validates cfg and builds a fresh, empty local tier.
func NewSturdycLocal[T any](cfg Config) (*SturdycLocal[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[T](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycLocal[T]{client: client}, nil
}

// Get returns the entry stored for key, if present and not expired.
func (s *SturdycLocal[T]) Get(key string) (T, bool) {
	return s.client.Get(key)
}

// Set stores value under key, replacing any previous entry.
func (s *SturdycLocal[T]) Set(key string, value T) {
	s.client.Set(key, value)
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *SturdycLocal[T]) Delete(key string) {
	s.client.Delete(key)
}

// Len returns the number of entries currently held.
func (s *SturdycLocal[T]) Len() int {
	return s.client.Size()
}
