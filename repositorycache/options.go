package repositorycache

import (
	"log/slog"
	"time"

	"github.com/goliatone/go-tiered-cache/cache"
)

// Option configures an Orchestrator.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	remoteTTL time.Duration
	namespace string
	keys      cache.KeySerializer
	now       func() time.Time
}

func defaultOptions() *options {
	return &options{
		logger: slog.New(slog.DiscardHandler),
		keys:   cache.NewDefaultKeySerializer(""),
		now:    time.Now,
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRemoteTTL sets the expiration passed to the remote tier on every write.
// Zero leaves the choice to the remote tier.
func WithRemoteTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.remoteTTL = ttl
	}
}

// WithNamespace overrides the key namespace. Default: the snake_case type
// name of the cached value, so Book entities live under "book_<id>".
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithKeySerializer replaces the default key serializer.
func WithKeySerializer(keys cache.KeySerializer) Option {
	return func(o *options) {
		if keys != nil {
			o.keys = keys
		}
	}
}

// WithClock sets the time source used to stamp local entries.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
