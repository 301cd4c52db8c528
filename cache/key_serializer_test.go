package cache

import (
	"testing"
)

func TestDefaultKeySerializer_BasicTypes(t *testing.T) {
	serializer := NewDefaultKeySerializer("")

	tests := []struct {
		name      string
		namespace string
		key       any
		want      string
	}{
		{
			name:      "int key",
			namespace: "book",
			key:       7,
			want:      "book_7",
		},
		{
			name:      "int64 key",
			namespace: "book",
			key:       int64(42),
			want:      "book_42",
		},
		{
			name:      "string key",
			namespace: "author",
			key:       "chip-huyen",
			want:      "author_chip-huyen",
		},
		{
			name:      "bool key",
			namespace: "flag",
			key:       true,
			want:      "flag_true",
		},
		{
			name:      "empty namespace",
			namespace: "",
			key:       7,
			want:      "7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.namespace, tt.key)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_Prefix(t *testing.T) {
	serializer := NewDefaultKeySerializer("staging")

	got := serializer.SerializeKey("book", 7)
	if got != "staging:book_7" {
		t.Errorf("SerializeKey() = %v, want %v", got, "staging:book_7")
	}
}

func TestDefaultKeySerializer_NilValues(t *testing.T) {
	serializer := NewDefaultKeySerializer("")

	tests := []struct {
		name string
		key  any
		want string
	}{
		{name: "nil interface", key: nil, want: "k_nil"},
		{name: "nil pointer", key: (*int)(nil), want: "k_nil"},
		{name: "nil slice", key: ([]int)(nil), want: "k_slice:nil"},
		{name: "nil map", key: (map[string]int)(nil), want: "k_map:nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey("k", tt.key)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_Composite(t *testing.T) {
	serializer := NewDefaultKeySerializer("")

	type compositeKey struct {
		Tenant string
		ID     int
		secret string
	}

	id := 9

	tests := []struct {
		name string
		key  any
		want string
	}{
		{
			name: "pointer is dereferenced",
			key:  &id,
			want: "k_9",
		},
		{
			name: "int slice",
			key:  []int{1, 2, 3},
			want: "k_slice[3]:{1,2,3}",
		},
		{
			name: "string array",
			key:  [2]string{"hello", "world"},
			want: "k_array[2]:{hello,world}",
		},
		{
			name: "map is sorted",
			key:  map[string]int{"count": 10, "age": 25},
			want: "k_map[2]:{age=25,count=10}",
		},
		{
			name: "struct keeps exported fields",
			key:  compositeKey{Tenant: "acme", ID: 3, secret: "x"},
			want: "k_struct:{Tenant:acme,ID:3}",
		},
		{
			name: "func keeps only its type",
			key:  func() {},
			want: "k_fallback:func()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey("k", tt.key)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_Deterministic(t *testing.T) {
	serializer := NewDefaultKeySerializer("")
	key := map[string][]int{"b": {2}, "a": {1}, "c": {3}}

	first := serializer.SerializeKey("k", key)
	for i := 0; i < 50; i++ {
		if got := serializer.SerializeKey("k", key); got != first {
			t.Fatalf("SerializeKey() not deterministic: %v != %v", got, first)
		}
	}
}
