package utils

import (
	"strings"
	"testing"
)

func TestTruncateForLog(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "short string untouched", in: "skills: go, python", limit: 50, want: "skills: go, python"},
		{name: "exact limit untouched", in: "abcde", limit: 5, want: "abcde"},
		{name: "long string truncated", in: "senior backend engineer with ten years", limit: 14, want: "senior backend..."},
		{name: "surrounding whitespace trimmed", in: "  cv preview  ", limit: 50, want: "cv preview"},
		{name: "zero limit yields empty", in: "anything", limit: 0, want: ""},
		{name: "negative limit yields empty", in: "anything", limit: -3, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateForLog(tc.in, tc.limit); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestTruncateForLogMultibyte(t *testing.T) {
	in := strings.Repeat("é", 10)

	got := TruncateForLog(in, 4)
	if got != strings.Repeat("é", 4)+"..." {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}
