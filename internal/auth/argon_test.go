package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword(hash, "correct horse battery")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_RandomSalt(t *testing.T) {
	h1, err := HashPassword("same password")
	require.NoError(t, err)
	h2, err := HashPassword("same password")
	require.NoError(t, err)

	// Fresh salt per hash; both still verify.
	assert.NotEqual(t, h1, h2)
}

func TestHashPassword_Bounds(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)

	_, err = HashPassword(strings.Repeat("x", maxPasswordLength+1))
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	// Malformed hashes verify false without leaking why.
	tests := []string{
		"",
		"not a hash",
		"$argon2i$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA", // wrong algorithm
		"$argon2id$v=19$m=65536,t=3,p=4$!!$aGFzaA",    // bad salt encoding
	}

	for _, hash := range tests {
		ok, err := VerifyPassword(hash, "whatever")
		assert.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestVerifyPassword_OversizedPassword(t *testing.T) {
	hash, err := HashPassword("real password")
	require.NoError(t, err)

	ok, err := VerifyPassword(hash, strings.Repeat("x", maxPasswordLength+1))
	require.NoError(t, err)
	assert.False(t, ok)
}
