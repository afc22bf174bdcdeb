package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
)

func TestTokenManager_UsesConfiguredTTL(t *testing.T) {
	ttl := 2 * time.Hour
	tm := NewTokenManager("test-secret", ttl)

	userID := uuid.New()
	start := time.Now()

	token, err := tm.GenerateToken(userID, "diner@example.com", domain.RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "diner@example.com", claims.Email)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.WithinDuration(t, start.Add(ttl), claims.ExpiresAt.Time, 2*time.Second)
}

func TestTokenManager_RoleTTL(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour,
		WithRoleTTL(domain.RoleAdmin, 8*time.Hour),
		WithRoleTTL(domain.RoleRestaurantOwner, 168*time.Hour),
	)

	assert.Equal(t, time.Hour, tm.TTL(domain.RoleUser))
	assert.Equal(t, 8*time.Hour, tm.TTL(domain.RoleAdmin))
	assert.Equal(t, 168*time.Hour, tm.TTL(domain.RoleRestaurantOwner))

	token, err := tm.GenerateToken(uuid.New(), "admin@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(domain.RoleAdmin))
	assert.False(t, claims.HasRole(domain.RoleUser, domain.RoleRestaurantOwner))
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), claims.ExpiresAt.Time, 2*time.Second)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenManager("other-secret", time.Hour).GenerateToken(uuid.New(), "a@b.co", domain.RoleAdmin)
		require.NoError(t, err)
		_, err = tm.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenManager("test-secret", time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := expired.GenerateToken(uuid.New(), "a@b.co", domain.RoleAdmin)
		require.NoError(t, err)
		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("unknown role", func(t *testing.T) {
		token, err := tm.GenerateToken(uuid.New(), "a@b.co", domain.Role("superuser"))
		require.NoError(t, err)
		_, err = tm.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestTokenManager_RefreshTokens(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour, WithRefreshTTL(72*time.Hour))
	userID := uuid.New()

	refresh, err := tm.GenerateRefreshToken(userID, "diner@example.com", domain.RoleUser)
	require.NoError(t, err)
	access, err := tm.GenerateToken(userID, "diner@example.com", domain.RoleUser)
	require.NoError(t, err)

	claims, err := tm.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, 72*time.Hour, tm.RefreshTTL())
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), claims.ExpiresAt.Time, 2*time.Second)

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, err := tm.ValidateToken(refresh)
		assert.Error(t, err)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := tm.ValidateRefreshToken(access)
		assert.Error(t, err)
	})

	t.Run("default lifetime", func(t *testing.T) {
		assert.Equal(t, 7*24*time.Hour, NewTokenManager("test-secret", time.Hour).RefreshTTL())
	})
}
