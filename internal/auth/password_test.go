package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := hashPassword("secret1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.NotContains(t, hash, "secret1")

	// A second hash of the same password must differ (random salt)
	hash2, err := hashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := hashPassword("secret1")
	require.NoError(t, err)

	assert.True(t, verifyPassword(hash, "secret1"))
	assert.False(t, verifyPassword(hash, "secret2"))
	assert.False(t, verifyPassword(hash, ""))
	assert.False(t, verifyPassword(hash, "secret1 "))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	testCases := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not a hash", "plaintext"},
		{"wrong part count", "$argon2id$v=19$m=65536"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA"},
		{"bad params", "$argon2id$v=19$nonsense$c2FsdA$aGFzaA"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, verifyPassword(tc.hash, "secret1"))
		})
	}
}

func TestGenerateRandomToken(t *testing.T) {
	a, err := generateRandomToken()
	require.NoError(t, err)
	b, err := generateRandomToken()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
