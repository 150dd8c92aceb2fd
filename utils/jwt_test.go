package utils

import (
	"testing"
	"time"

	"chefly/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", time.Hour)
	require.NoError(t, err)

	userID, err := ExtractIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("user-1", -time.Minute)
	require.NoError(t, err)

	_, err = ExtractIDFromToken(token)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	token, err := GenerateToken("user-1", time.Hour)
	require.NoError(t, err)

	_, err = ExtractIDFromToken(token + "x")
	assert.Error(t, err)
}

func TestConfiguredSecretSignsTokens(t *testing.T) {
	config.AppConfig.JWTSecret = "config-secret"
	defer func() { config.AppConfig.JWTSecret = "" }()

	token, err := GenerateToken("user-1", time.Hour)
	require.NoError(t, err)

	userID, err := ExtractIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	// Dropping the configured secret falls back to the default key, so the
	// signature no longer verifies.
	config.AppConfig.JWTSecret = ""
	_, err = ExtractIDFromToken(token)
	assert.Error(t, err)
}

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("some-token")
	b := HashToken("some-token")
	c := HashToken("other-token")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
