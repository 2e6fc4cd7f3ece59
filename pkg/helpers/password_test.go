package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	// MinCost keeps the test fast; the production default is 12.
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", digest)

	assert.True(t, h.Verify("password123", digest))
	assert.False(t, h.Verify("password124", digest))
	assert.False(t, h.Verify("", digest))
}

func TestHashIsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	d1, err := h.Hash("same-secret")
	require.NoError(t, err)
	d2, err := h.Hash("same-secret")
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}

func TestNewHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).Cost)
	assert.Equal(t, 12, NewHasher(12).Cost)
}

func TestHashesResetCodes(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	code, err := GenResetCode()
	require.NoError(t, err)
	require.Len(t, code, 6)

	digest, err := h.Hash(code)
	require.NoError(t, err)
	assert.True(t, h.Verify(code, digest))
	if code != "000001" {
		assert.False(t, h.Verify("000001", digest))
	}
}

func TestGenVerificationToken(t *testing.T) {
	t1, err := GenVerificationToken()
	require.NoError(t, err)
	t2, err := GenVerificationToken()
	require.NoError(t, err)

	assert.Len(t, t1, 64) // 32 bytes hex encoded
	assert.NotEqual(t, t1, t2)
}
