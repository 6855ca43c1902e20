package jwtauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinid/pkg/platform/sentinel"
)

const (
	testKey      = "test-signing-key"
	testIssuer   = "clinid"
	testAudience = "clinid-api"
)

func mintToken(t *testing.T, key string, expiresAt time.Time) string {
	t.Helper()
	claims := Claims{
		UserID:    "agent-1",
		SessionID: "session-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func TestValidateToken(t *testing.T) {
	svc := NewService(testKey, testIssuer, testAudience)

	t.Run("valid token round-trips claims", func(t *testing.T) {
		claims, err := svc.ValidateToken(mintToken(t, testKey, time.Now().Add(time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, "agent-1", claims.UserID)
		assert.Equal(t, "session-1", claims.SessionID)
	})

	t.Run("expired token reports expiry", func(t *testing.T) {
		_, err := svc.ValidateToken(mintToken(t, testKey, time.Now().Add(-time.Minute)))
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel.ErrExpired)
	})

	t.Run("wrong key is rejected without expiry signal", func(t *testing.T) {
		_, err := svc.ValidateToken(mintToken(t, "other-key", time.Now().Add(time.Hour)))
		require.Error(t, err)
		assert.NotErrorIs(t, err, sentinel.ErrExpired)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		require.Error(t, err)
	})
}
