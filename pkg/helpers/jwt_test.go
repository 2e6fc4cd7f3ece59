package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWT() *JWTManager {
	return NewJWTManager("access-secret", "refresh-secret", "email-secret", time.Hour, 720*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testJWT()

	token, exp, err := m.GenerateAccessToken("acc-42")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(m.AccessTTL), exp, 5*time.Second)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-42", claims.AccountID)
}

func TestRefreshTokenNotValidAsAccessToken(t *testing.T) {
	m := testJWT()

	refresh, _, err := m.GenerateRefreshToken("acc-42")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(refresh)
	assert.Error(t, err, "tokens are bound to their secret")

	claims, err := m.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "acc-42", claims.AccountID)
}

func TestTokensMintedTogetherAreDistinct(t *testing.T) {
	m := testJWT()

	t1, _, err := m.GenerateRefreshToken("acc-42")
	require.NoError(t, err)
	t2, _, err := m.GenerateRefreshToken("acc-42")
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2, "jti keeps same-second tokens apart")
}

func TestWrongSecretRejected(t *testing.T) {
	m := testJWT()
	other := NewJWTManager("different", "different", "different", time.Hour, time.Hour)

	token, _, err := m.GenerateAccessToken("acc-42")
	require.NoError(t, err)

	_, err = other.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestEmailEnvelopeRoundTrip(t *testing.T) {
	m := testJWT()

	env, err := m.GenerateEmailEnvelope("a@x.com", "opaque-token")
	require.NoError(t, err)

	claims, err := m.ParseEmailEnvelope(env)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "opaque-token", claims.VerificationToken)
}

func TestEmailEnvelopeGarbageRejected(t *testing.T) {
	m := testJWT()

	_, err := m.ParseEmailEnvelope("not-a-jwt")
	assert.Error(t, err)

	// access tokens are not acceptable envelopes
	access, _, err := m.GenerateAccessToken("acc-42")
	require.NoError(t, err)
	_, err = m.ParseEmailEnvelope(access)
	assert.Error(t, err)
}
