package logging

import (
	"strings"
	"testing"
)

func TestAnonymizeUser(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"email", "advertiser@example.com"},
		{"meta user id", "10224433221100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeUser(tt.input)
			if !strings.HasPrefix(got, "user:") {
				t.Errorf("AnonymizeUser(%q) = %q, want user: prefix", tt.input, got)
			}
			if strings.Contains(got, tt.input) {
				t.Errorf("AnonymizeUser(%q) leaked the raw identifier", tt.input)
			}
			// Hashing must be deterministic for log correlation.
			if again := AnonymizeUser(tt.input); again != got {
				t.Errorf("AnonymizeUser not deterministic: %q != %q", got, again)
			}
		})
	}
}

func TestAnonymizeUserEmpty(t *testing.T) {
	if got := AnonymizeUser(""); got != "" {
		t.Errorf("AnonymizeUser(\"\") = %q, want empty", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"empty", "", "<empty>"},
		{"short", "abc", "[token:3 chars]"},
		{"long lived token", strings.Repeat("x", 180), "[token:180 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.want {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestErrNil(t *testing.T) {
	attr := Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) should produce an empty group, got key %q", attr.Key)
	}
}
