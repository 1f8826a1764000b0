package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordNeverPlaintext(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3r$ecret", hash)
	assert.True(t, VerifyPassword(hash, "Sup3r$ecret"))
	assert.False(t, VerifyPassword(hash, "wrong-password"))
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("user@example.com"))
	assert.True(t, IsEmail("  padded@example.co "))
	assert.False(t, IsEmail("not-an-email"))
	assert.False(t, IsEmail("missing@tld"))
	assert.False(t, IsEmail("@example.com"))
}

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Sup3r$ecret", true},
		{"Aa1!aaaa", true},
		{"short1A!", true},
		{"Aa1!aaa", false},     // 7 chars
		{"alllower1!", false},  // no upper
		{"ALLUPPER1!", false},  // no lower
		{"NoDigits!!", false},  // no digit
		{"NoSymbol11a", false}, // no symbol
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, IsStrongPassword(tt.password), "password %q", tt.password)
	}
}

func TestNewResetToken(t *testing.T) {
	raw, hash, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, raw, 64)  // 32 bytes hex encoded
	assert.Len(t, hash, 64) // sha256 hex digest
	assert.NotEqual(t, raw, hash)
	assert.Equal(t, hash, HashToken(raw))

	raw2, _, err := NewResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}
