package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vextract/parse-gateway/internal/utils"
)

const (
	revokedTokenPrefix = "auth:revoked:"
	accessTokenKey     = "wechat:access_token"
)

// TokenStore 会话令牌吊销记录与微信 access_token 缓存
type TokenStore struct {
	redis redis.Cmdable
}

// NewTokenStore 创建令牌存储
func NewTokenStore(redisClient redis.Cmdable) *TokenStore {
	return &TokenStore{redis: redisClient}
}

// Revoke 吊销令牌直到其过期
func (s *TokenStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := revokedTokenPrefix + utils.HashToken(token)
	if err := s.redis.Set(ctx, key, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// IsRevoked 令牌是否已吊销
func (s *TokenStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, revokedTokenPrefix+utils.HashToken(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

// GetAccessToken 读取缓存的微信 access_token
func (s *TokenStore) GetAccessToken(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, accessTokenKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", utils.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return token, nil
}

// SetAccessToken 缓存微信 access_token
func (s *TokenStore) SetAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, accessTokenKey, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
