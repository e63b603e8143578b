package instrumentation

import "testing"

func TestExtractUserDomain(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"valid email", "jane@example.com", "example.com"},
		{"empty", "", "unknown"},
		{"no at sign", "not-an-email", "unknown"},
		{"empty domain", "jane@", "unknown"},
		{"multiple at signs", "a@b@c", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractUserDomain(tt.email); got != tt.want {
				t.Errorf("ExtractUserDomain(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}
