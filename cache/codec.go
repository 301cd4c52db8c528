package cache

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/jmgilman/go/errors"
)

// Codec converts values to and from the bytes held by the remote tier.
type Codec[V any] interface {
	Encode(value V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// JSONCodec encodes values as JSON. Decode tolerates opaque framing added around
// the payload by a remote cache transport: when the input is not valid JSON as a
// whole, the first object or array that parses completely is decoded.
type JSONCodec[V any] struct{}

// NewJSONCodec returns the default codec.
func NewJSONCodec[V any]() JSONCodec[V] {
	return JSONCodec[V]{}
}

// Encode implements Codec.
func (JSONCodec[V]) Encode(value V) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "failed to encode cache value")
	}
	return data, nil
}

// Decode implements Codec. A bare null is rejected unless V can hold nil.
func (JSONCodec[V]) Decode(data []byte) (V, error) {
	var value V

	payload, ok := locatePayload(data)
	if !ok {
		return value, DecodeError(nil)
	}
	if bytes.Equal(payload, jsonNull) && !nilable(reflect.TypeFor[V]()) {
		return value, DecodeError(nil)
	}

	if err := json.Unmarshal(payload, &value); err != nil {
		var zero V
		return zero, DecodeError(err)
	}
	return value, nil
}

var jsonNull = []byte("null")

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return true
	}
	return false
}

// locatePayload returns the JSON document inside data. Start markers are tried
// left to right and the first one that opens a complete value wins, so marker
// bytes inside the framing are skipped.
func locatePayload(data []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false
	}
	if json.Valid(trimmed) {
		return trimmed, true
	}

	for start, b := range data {
		if b != '{' && b != '[' {
			continue
		}

		var raw json.RawMessage
		if err := json.NewDecoder(bytes.NewReader(data[start:])).Decode(&raw); err == nil {
			return raw, true
		}
	}
	return nil, false
}
