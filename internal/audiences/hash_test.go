package audiences

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"lowercase passthrough", "user@example.com", "user@example.com", false},
		{"uppercase folded", "User@Example.COM", "user@example.com", false},
		{"surrounding whitespace", "  user@example.com \n", "user@example.com", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"missing at sign", "not-an-email", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEmail(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"digits only", "15551234567", "15551234567", false},
		{"formatted", "+1 (555) 123-4567", "15551234567", false},
		{"dots and spaces", "1.555.123 4567", "15551234567", false},
		{"too short", "+1 23", "", true},
		{"empty", "", "", true},
		{"letters only", "call me", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHashIdentifier(t *testing.T) {
	// sha256 of "user@example.com"
	assert.Equal(t,
		"b4c9a289323b21a01c3e940f150eb9b8c542587f1abfd8f0e1cc1ffc5e475514",
		HashIdentifier("user@example.com"))

	// Hashing is applied to the normalized form, so the folded input
	// must produce the same digest.
	normalized, err := NormalizeEmail("User@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, HashIdentifier("user@example.com"), HashIdentifier(normalized))
}

func TestNormalizeAndHash(t *testing.T) {
	hashed, invalid, err := normalizeAndHash(SchemaEmail, []string{
		"a@example.com",
		"not-an-email",
		"B@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, invalid)
	require.Len(t, hashed, 2)
	assert.Equal(t, HashIdentifier("a@example.com"), hashed[0][0])
	assert.Equal(t, HashIdentifier("b@example.com"), hashed[1][0])
}

func TestNormalizeAndHash_AllInvalid(t *testing.T) {
	_, invalid, err := normalizeAndHash(SchemaPhone, []string{"abc", "12"})
	require.Error(t, err)
	assert.Equal(t, 2, invalid)
}

func TestNormalizeAndHash_UnknownSchema(t *testing.T) {
	_, _, err := normalizeAndHash(Schema("MAID"), []string{"x"})
	require.Error(t, err)
}
