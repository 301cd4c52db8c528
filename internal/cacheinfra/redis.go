package cacheinfra

import (
	"bytes"
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/redis/go-redis/v9"
)

// envelopeMagic opens the framing written when envelopes are enabled.
// Layout: "tce1|<stored-at unix nanos>|<payload>".
const envelopeMagic = "tce1|"

// RedisOption configures the Redis remote tier.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix     string
	defaultTTL time.Duration
	envelope   bool
	now        func() time.Time
}

func defaultRedisOptions() *redisOptions {
	return &redisOptions{
		defaultTTL: time.Hour,
		now:        time.Now,
	}
}

// WithRedisPrefix namespaces every key as "{prefix}:{key}".
func WithRedisPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}

// WithRedisDefaultTTL sets the expiration used when Set is called with a zero TTL.
// Negative values store entries without expiration. Default: 1 hour.
func WithRedisDefaultTTL(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.defaultTTL = d
	}
}

// WithEnvelope frames stored values with a header carrying the write time.
// Readers receive the framed bytes unchanged.
func WithEnvelope(enabled bool) RedisOption {
	return func(o *redisOptions) {
		o.envelope = enabled
	}
}

// RedisRemote is the shared remote tier backed by Redis.
type RedisRemote struct {
	client redis.UniversalClient
	opts   *redisOptions
}

// NewRedisRemote wraps an open client. The client lifecycle stays with the caller.
func NewRedisRemote(client redis.UniversalClient, opts ...RedisOption) *RedisRemote {
	o := defaultRedisOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &RedisRemote{client: client, opts: o}
}

// Get returns the raw bytes stored under key. A missing key is not an error.
func (r *RedisRemote) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefixedKey(key)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, unavailable("get", key, err)
	}
	return data, true, nil
}

// Set stores value under key.
func (r *RedisRemote) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.opts.defaultTTL
	}

	if r.opts.envelope {
		value = r.frame(value)
	}

	if err := r.client.Set(ctx, r.prefixedKey(key), value, max(ttl, 0)).Err(); err != nil {
		return unavailable("set", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *RedisRemote) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefixedKey(key)).Err(); err != nil {
		return unavailable("delete", key, err)
	}
	return nil
}

// Ping reports whether the server is reachable.
func (r *RedisRemote) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", "", err)
	}
	return nil
}

func (r *RedisRemote) prefixedKey(key string) string {
	if r.opts.prefix == "" {
		return key
	}
	return r.opts.prefix + ":" + key
}

func (r *RedisRemote) frame(payload []byte) []byte {
	var b bytes.Buffer
	b.Grow(len(envelopeMagic) + 20 + len(payload))
	b.WriteString(envelopeMagic)
	b.WriteString(strconv.FormatInt(r.opts.now().UnixNano(), 10))
	b.WriteByte('|')
	b.Write(payload)
	return b.Bytes()
}

func unavailable(op, key string, cause error) errors.PlatformError {
	err := errors.Wrapf(cause, errors.CodeNetwork, "remote cache %s failed", op)
	if key != "" {
		err = errors.WithContext(err, "key", key)
	}
	return err
}

// OpenRedis creates a Redis client from a redis:// or rediss:// URL and
// verifies it with PING, retrying with linear backoff.
func OpenRedis(ctx context.Context, url string, attempts int, interval time.Duration) (redis.UniversalClient, error) {
	if url == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "redis: empty connection URL")
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, errors.Newf(errors.CodeInvalidConfig, "redis: unsupported URL scheme in %q", url)
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "redis: failed to parse connection URL")
	}

	attempts = max(attempts, 1)
	var lastErr error
	for i := range attempts {
		client := redis.NewClient(opts)

		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.CodeNetwork, "redis: connection aborted")
		case <-time.After(time.Duration(i+1) * interval):
		}
	}

	return nil, errors.Wrap(lastErr, errors.CodeNetwork, "redis: failed to establish connection")
}
