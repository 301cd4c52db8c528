package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// KeySeparator joins the namespace and the rendered entity key.
const KeySeparator = "_"

// PrefixSeparator joins the optional deployment prefix and the rest of the key.
const PrefixSeparator = ":"

// defaultKeySerializer renders entity keys deterministically so that every
// process sharing the remote tier computes the same key for the same entity.
type defaultKeySerializer struct {
	prefix string
}

// NewDefaultKeySerializer creates the default key serializer.
// A non-empty prefix is prepended to every key, which lets several deployments
// share one Redis database.
func NewDefaultKeySerializer(prefix string) KeySerializer {
	return &defaultKeySerializer{prefix: prefix}
}

// SerializeKey renders namespace and key as "namespace_key", e.g. "book_7".
func (s *defaultKeySerializer) SerializeKey(namespace string, key any) string {
	var b strings.Builder
	if s.prefix != "" {
		b.WriteString(s.prefix)
		b.WriteString(PrefixSeparator)
	}
	if namespace != "" {
		b.WriteString(namespace)
		b.WriteString(KeySeparator)
	}
	b.WriteString(s.serializeValue(key))
	return b.String()
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())

	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return fmt.Sprintf("slice[%d]:{%s}", rv.Len(), s.serializeElements(rv))

	case reflect.Array:
		return fmt.Sprintf("array[%d]:{%s}", rv.Len(), s.serializeElements(rv))

	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)

	case reflect.Struct:
		return s.serializeStruct(rv)

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return fmt.Sprintf("%v", v)
	}

	return s.jsonFallback(v)
}

func (s *defaultKeySerializer) serializeElements(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}
	return strings.Join(parts, ",")
}

// serializeMap sorts pairs by rendered key so map iteration order never leaks
// into the cache key.
func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.serializeValue(iter.Key().Interface())+"="+s.serializeValue(iter.Value().Interface()))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func (s *defaultKeySerializer) serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rv.NumField())

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+s.serializeValue(rv.Field(i).Interface()))
	}

	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

// jsonFallback covers the remaining kinds. Funcs and channels cannot be
// marshaled and have no cross-process identity, so only their type is kept.
func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("fallback:%T", v)
	}
	return "json:" + string(data)
}
