package cache

import (
	"github.com/jmgilman/go/errors"
)

// Sentinel errors kept at the root of the cause chain so errors.Is keeps working
// after context has been attached.
var (
	// ErrNotFound is the root cause of every not-found error.
	ErrNotFound = errors.New(errors.CodeNotFound, "entity not found")

	// ErrDecode is the root cause of every decode error.
	ErrDecode = errors.New(errors.CodeSchemaFailed, "no decodable payload in cache value")
)

// NotFound reports that key is absent from the backing store.
func NotFound(key any) error {
	err := errors.Wrap(ErrNotFound, errors.CodeNotFound, "entity not found")
	return errors.WithContext(err, "key", key)
}

// StoreUnavailable wraps a failed backing store call. It is retryable.
func StoreUnavailable(op string, cause error) error {
	err := errors.Wrapf(cause, errors.CodeDatabase, "backing store %s failed", op)
	return errors.WithContext(err, "op", op)
}

// CacheUnavailable wraps a failed remote cache call. It is retryable.
func CacheUnavailable(op string, cause error) error {
	err := errors.Wrapf(cause, errors.CodeNetwork, "remote cache %s failed", op)
	return errors.WithContext(err, "op", op)
}

// DecodeError wraps a failure to recover a value from remote cache bytes.
func DecodeError(cause error) error {
	if cause == nil {
		return ErrDecode
	}
	return errors.Wrap(cause, errors.CodeSchemaFailed, ErrDecode.Message())
}

// IsNotFound reports whether err means the key is absent from the backing store.
func IsNotFound(err error) bool {
	return err != nil && (errors.Is(err, ErrNotFound) || errors.GetCode(err) == errors.CodeNotFound)
}

// IsStoreUnavailable reports whether err is a failed backing store call.
func IsStoreUnavailable(err error) bool {
	return errors.GetCode(err) == errors.CodeDatabase
}

// IsCacheUnavailable reports whether err is a failed remote cache call.
func IsCacheUnavailable(err error) bool {
	return errors.GetCode(err) == errors.CodeNetwork
}

// IsDecodeError reports whether err is a codec failure.
func IsDecodeError(err error) bool {
	return err != nil && (errors.Is(err, ErrDecode) || errors.GetCode(err) == errors.CodeSchemaFailed)
}
