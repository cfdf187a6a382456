package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestClaimsParsedWithoutVerification(t *testing.T) {
	token := signedTestToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "a@b.c",
		"role":  "buyer",
		"exp":   float64(time.Now().Add(time.Hour).Unix()),
	})

	store := NewTokenStore("")
	store.SetSession(token, "", nil)

	claims, err := store.Claims()
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.Equal(t, "buyer", claims.Role)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
	assert.True(t, store.Authenticated())
}

func TestExpiredTokenIsNotAuthenticated(t *testing.T) {
	token := signedTestToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": float64(time.Now().Add(-time.Hour).Unix()),
	})

	store := NewTokenStore("")
	store.SetSession(token, "", nil)
	assert.False(t, store.Authenticated())
}

func TestOpaqueTokenCountsAsAuthenticated(t *testing.T) {
	store := NewTokenStore("")
	store.SetSession("opaque-session-token", "", nil)
	assert.True(t, store.Authenticated())

	store.Clear()
	assert.False(t, store.Authenticated())
	_, err := store.Claims()
	require.Error(t, err)
}
