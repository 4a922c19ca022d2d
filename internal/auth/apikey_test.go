package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateAPIKey(t *testing.T) {
	a, err := GenerateAPIKey()
	require.NoError(t, err)
	b, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.Len(t, a.Prefix, apiKeyPrefixBytes*2)
	assert.Len(t, a.Secret, apiKeySecretBytes*2)
	assert.NotEqual(t, a.String(), b.String())

	parsed, ok := ParseAPIKey(a.String())
	require.True(t, ok)
	assert.Equal(t, a, parsed)
}

func TestParseAPIKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"valid", "abc.def", true},
		{"surrounding spaces", "  abc.def ", true},
		{"no separator", "abcdef", false},
		{"empty prefix", ".def", false},
		{"empty secret", "abc.", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseAPIKey(tt.raw)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestBcryptKeyHasher(t *testing.T) {
	h := NewBcryptKeyHasherWithCost(bcrypt.MinCost)

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, h.Compare(hash, "s3cret"))
	assert.Error(t, h.Compare(hash, "wrong"))
}
