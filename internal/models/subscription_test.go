package models

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestShortEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
	}{
		{name: "short", endpoint: "https://push.example/a", want: "https://push.example/a"},
		{name: "exactly fifty", endpoint: strings.Repeat("a", 50), want: strings.Repeat("a", 50)},
		{name: "ascii", endpoint: strings.Repeat("a", 60), want: strings.Repeat("a", 50) + "..."},
		{name: "multibyte", endpoint: strings.Repeat("a", 49) + "ééé", want: strings.Repeat("a", 49) + "é..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subscription{Endpoint: tt.endpoint}.ShortEndpoint()
			if got != tt.want {
				t.Fatalf("ShortEndpoint() = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("ShortEndpoint() produced invalid UTF-8 %q", got)
			}
		})
	}
}
