package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/nfcstore/internal/config"
)

func newTestIssuer(now time.Time) *TokenIssuer {
	ti := NewTokenIssuer(config.Auth{
		SigningKey: "test-signing-key",
		Issuer:     "nfcstore",
		AccessTTL:  7 * 24 * time.Hour,
		RefreshTTL: 30 * 24 * time.Hour,
	})
	ti.now = func() time.Time { return now }
	return ti
}

func TestTokenIssuer(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ti := newTestIssuer(now)
	userID := uuid.Must(uuid.NewV7())

	pair, err := ti.IssuePair(userID)
	require.NoError(t, err)

	t.Run("Should validate access token", func(t *testing.T) {
		got, err := ti.ValidateAccess(pair.Access)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("Should validate refresh token", func(t *testing.T) {
		got, err := ti.ValidateRefresh(pair.Refresh)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("Should reject refresh token used as access", func(t *testing.T) {
		_, err := ti.ValidateAccess(pair.Refresh)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should reject access token used as refresh", func(t *testing.T) {
		_, err := ti.ValidateRefresh(pair.Access)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should carry unique jti", func(t *testing.T) {
		other, err := ti.IssueAccess(userID)
		require.NoError(t, err)
		assert.NotEqual(t, pair.Access, other)
	})

	t.Run("Should expire access token after ttl", func(t *testing.T) {
		ti.now = func() time.Time { return now.Add(7*24*time.Hour + time.Minute) }
		t.Cleanup(func() { ti.now = func() time.Time { return now } })

		_, err := ti.ValidateAccess(pair.Access)
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = ti.ValidateRefresh(pair.Refresh)
		assert.NoError(t, err)
	})

	t.Run("Should reject tampered token", func(t *testing.T) {
		tampered := pair.Access[:len(pair.Access)-2] + "xx"
		_, err := ti.ValidateAccess(tampered)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should reject token signed with another key", func(t *testing.T) {
		other := newTestIssuer(now)
		other.key = []byte("another-key")
		token, err := other.IssueAccess(userID)
		require.NoError(t, err)

		_, err = ti.ValidateAccess(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should reject token without expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			UserID:           userID,
			TokenType:        AccessToken,
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "nfcstore"},
		}).SignedString(ti.key)
		require.NoError(t, err)

		_, err = ti.ValidateAccess(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should reject garbage", func(t *testing.T) {
		_, err := ti.ValidateAccess("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
