package repositorycache

import (
	"testing"

	"github.com/goliatone/go-tiered-cache/cache"
)

func TestToSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "Book", want: "book"},
		{in: "BookRecord", want: "book_record"},
		{in: "HTTPServer", want: "http_server"},
		{in: "Book2", want: "book_2"},
		{in: "already_snake", want: "already_snake"},
		{in: "Entry[main.Book]", want: "entry_main_book"},
		{in: "--Book--", want: "book"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := toSnake(tt.in); got != tt.want {
				t.Errorf("toSnake(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

type AudioBook struct{}

func TestNamespaceFor(t *testing.T) {
	if got := namespaceFor[AudioBook](); got != "audio_book" {
		t.Errorf("namespaceFor[AudioBook]() = %q, want audio_book", got)
	}
	if got := namespaceFor[*AudioBook](); got != "audio_book" {
		t.Errorf("namespaceFor[*AudioBook]() = %q, want audio_book", got)
	}
	if got := namespaceFor[cache.Entry[AudioBook]](); got == "" {
		t.Error("namespaceFor on a generic type returned an empty namespace")
	}
}
