package auth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// HandleResolver looks up the current handle for a user. Refresh rotates the
// token pair, and the new access token must carry the handle the user has
// now, not the one at login time.
type HandleResolver func(ctx context.Context, userID string) (string, error)

type Service struct {
	jwt           *JWTManager
	redisClient   *redis.Client
	resolveHandle HandleResolver
}

func NewService(jwt *JWTManager, redisClient *redis.Client, resolveHandle HandleResolver) *Service {
	return &Service{
		jwt:           jwt,
		redisClient:   redisClient,
		resolveHandle: resolveHandle,
	}
}

func (s *Service) GenerateTokens(ctx context.Context, userID, handle string) (*TokenPair, error) {
	pair, tokenID, err := s.jwt.GenerateTokenPair(userID, handle)
	if err != nil {
		return nil, err
	}

	key := refreshKey(userID, tokenID)
	if err := s.redisClient.Set(ctx, key, "1", s.jwt.RefreshExpiry()).Err(); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return pair, nil
}

func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	key := refreshKey(claims.UserID, claims.TokenID)
	exists, err := s.redisClient.Exists(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("checking refresh token: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("refresh token revoked")
	}

	// Rotate: the old token is single-use.
	s.redisClient.Del(ctx, key)

	handle := ""
	if s.resolveHandle != nil {
		handle, err = s.resolveHandle(ctx, claims.UserID)
		if err != nil {
			return nil, fmt.Errorf("resolving handle: %w", err)
		}
	}

	return s.GenerateTokens(ctx, claims.UserID, handle)
}

func (s *Service) Logout(ctx context.Context, userID string) error {
	// Revoke every outstanding refresh token for the user.
	iter := s.redisClient.Scan(ctx, 0, refreshKey(userID, "*"), 100).Iterator()
	for iter.Next(ctx) {
		s.redisClient.Del(ctx, iter.Val())
	}
	return iter.Err()
}

func (s *Service) ValidateAccessToken(token string) (*AccessClaims, error) {
	return s.jwt.ValidateAccessToken(token)
}

func refreshKey(userID, tokenID string) string {
	return fmt.Sprintf("refresh:%s:%s", userID, tokenID)
}
