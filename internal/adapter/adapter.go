package adapter

import (
	"context"

	"vextract/parse-gateway/internal/models"
)

// Adapter 上游解析接口调用策略
type Adapter interface {
	// Call 使用密钥解析视频URL, 返回上游原始响应
	Call(ctx context.Context, videoURL, credential string) (map[string]any, error)
}

// Registry 平台到调用策略的映射
type Registry struct {
	adapters map[models.Platform]Adapter
	fallback Adapter
}

// NewRegistry 创建调用策略表, 小红书使用 JSON POST, 其余平台使用 GET
func NewRegistry(client *Client) *Registry {
	get := NewGetAdapter(client)
	return &Registry{
		adapters: map[models.Platform]Adapter{
			models.PlatformXiaohongshu: NewXiaohongshuAdapter(client),
		},
		fallback: get,
	}
}

// ForPlatform 返回平台对应的调用策略
func (r *Registry) ForPlatform(p models.Platform) Adapter {
	if a, ok := r.adapters[p]; ok {
		return a
	}
	return r.fallback
}

// Call 按平台选择策略并调用上游
func (r *Registry) Call(ctx context.Context, videoURL, credential string, p models.Platform) (map[string]any, error) {
	return r.ForPlatform(p).Call(ctx, videoURL, credential)
}
