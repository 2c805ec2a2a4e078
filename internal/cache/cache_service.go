package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

const parseKeyPrefix = "vextract:parse:"

// entry 缓存中保存的解析结果
type entry struct {
	Descriptor *models.VideoDescriptor `json:"descriptor"`
	CachedAt   time.Time               `json:"cached_at"`
}

// Service 解析结果缓存, 只缓存成功的解析
type Service struct {
	redis redis.Cmdable
	ttl   time.Duration
}

// NewService 创建缓存服务
func NewService(redisClient redis.Cmdable, ttl time.Duration) *Service {
	return &Service{redis: redisClient, ttl: ttl}
}

// Get 读取缓存, 未命中返回 utils.ErrCacheMiss
func (s *Service) Get(ctx context.Context, url string, platform models.Platform, opts models.ParseOptions) (*models.VideoDescriptor, error) {
	data, err := s.redis.Get(ctx, cacheKey(url, platform, opts)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, utils.ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("read parse cache: %w", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Descriptor == nil {
		// 无法识别的旧数据按未命中处理
		return nil, utils.ErrCacheMiss
	}
	return e.Descriptor, nil
}

// Set 写入缓存
func (s *Service) Set(ctx context.Context, url string, platform models.Platform, opts models.ParseOptions, desc *models.VideoDescriptor) error {
	data, err := json.Marshal(entry{Descriptor: desc, CachedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("encode parse cache: %w", err)
	}
	if err := s.redis.Set(ctx, cacheKey(url, platform, opts), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("write parse cache: %w", err)
	}
	return nil
}

// cacheKey 按平台分组, 同一链接不同选项的结果分开缓存
func cacheKey(url string, platform models.Platform, opts models.ParseOptions) string {
	if platform == "" {
		platform = models.PlatformUnknown
	}
	fingerprint := fmt.Sprintf("%s|%s|%t", url, opts.PreferredQuality, opts.ExtractAudio)
	return parseKeyPrefix + string(platform) + ":" + utils.HashToken(fingerprint)
}
