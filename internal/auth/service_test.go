package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, resolve HandleResolver) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mgr := NewJWTManager("access-secret-32-chars-long!!!!!", "refresh-secret-32-chars-long!!!!", 15*time.Minute, 7*24*time.Hour)
	return NewService(mgr, client, resolve)
}

func TestService_RefreshRotation(t *testing.T) {
	svc := newTestService(t, func(ctx context.Context, userID string) (string, error) {
		return "chefkirby", nil
	})
	ctx := context.Background()

	pair, err := svc.GenerateTokens(ctx, "user-1", "chefkirby")
	require.NoError(t, err)

	t.Run("valid refresh issues new pair with current handle", func(t *testing.T) {
		newPair, err := svc.RefreshTokens(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

		claims, err := svc.ValidateAccessToken(newPair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "chefkirby", claims.Handle)
	})

	t.Run("old refresh token is single-use", func(t *testing.T) {
		_, err := svc.RefreshTokens(ctx, pair.RefreshToken)
		assert.Error(t, err)
	})
}

func TestService_Logout(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	pair, err := svc.GenerateTokens(ctx, "user-2", "saucier")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "user-2"))

	_, err = svc.RefreshTokens(ctx, pair.RefreshToken)
	assert.Error(t, err)
}

func TestService_RefreshRejectsGarbage(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.RefreshTokens(context.Background(), "not-a-token")
	assert.Error(t, err)
}
