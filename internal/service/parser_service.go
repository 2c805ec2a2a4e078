package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vextract/parse-gateway/internal/detector"
	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/mq"
	"vextract/parse-gateway/internal/utils"
)

const eventPublishTimeout = 2 * time.Second

// KeyProvider 密钥池
type KeyProvider interface {
	GetAvailableKey(ctx context.Context) (*models.APIKey, error)
}

// UpstreamCaller 上游解析接口
type UpstreamCaller interface {
	Call(ctx context.Context, videoURL, credential string, platform models.Platform) (map[string]any, error)
}

// ResultCache 解析结果缓存
type ResultCache interface {
	Get(ctx context.Context, url string, platform models.Platform, opts models.ParseOptions) (*models.VideoDescriptor, error)
	Set(ctx context.Context, url string, platform models.Platform, opts models.ParseOptions, result *models.VideoDescriptor) error
}

// EventPublisher 解析事件发布
type EventPublisher interface {
	PublishParseEvent(ctx context.Context, event *mq.ParseEvent) error
}

// ParserDeps 解析服务依赖, Cache 和 Publisher 可为空
type ParserDeps struct {
	Upstream      UpstreamCaller
	Keys          KeyProvider
	Cache         ResultCache
	Publisher     EventPublisher
	MaxConcurrent int
	Logger        *zap.Logger
}

// ParserService 解析服务
type ParserService struct {
	detector  *detector.PlatformDetector
	upstream  UpstreamCaller
	keys      KeyProvider
	cache     ResultCache
	publisher EventPublisher
	limiter   *utils.ConcurrencyLimiter
	logger    *zap.Logger
}

// NewParserService 创建解析服务
func NewParserService(deps ParserDeps) *ParserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParserService{
		detector:  detector.NewPlatformDetector(),
		upstream:  deps.Upstream,
		keys:      deps.Keys,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		limiter:   utils.NewConcurrencyLimiter(deps.MaxConcurrent),
		logger:    logger,
	}
}

// parseTrace 单次解析过程中收集的信息, 用于日志和事件
type parseTrace struct {
	normalizedURL string
	platform      models.Platform
	keyID         int64
	cached        bool
}

// ParseVideo 解析视频分享链接, 错误不会返回给调用方而是包装在结果中
func (s *ParserService) ParseVideo(ctx context.Context, req *models.ParseRequest) *models.ParseOutcome {
	start := time.Now()
	opts := models.DefaultParseOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	trace := &parseTrace{platform: models.PlatformUnknown}
	desc, err := s.parse(ctx, req, opts, trace)

	outcome := &models.ParseOutcome{ExecTime: time.Since(start).Seconds()}
	if err != nil {
		outcome.Error = utils.UserMessage(err)
		outcome.Err = err
		s.logger.Error("视频解析失败",
			zap.String("url", req.URL),
			zap.String("normalized_url", trace.normalizedURL),
			zap.String("platform", string(trace.platform)),
			zap.Float64("exec_time", outcome.ExecTime),
			zap.Error(err),
		)
	} else {
		outcome.Success = true
		outcome.Data = desc
		s.logger.Info("视频解析完成",
			zap.String("normalized_url", trace.normalizedURL),
			zap.String("platform", string(trace.platform)),
			zap.Bool("cached", trace.cached),
			zap.Float64("exec_time", outcome.ExecTime),
		)
	}

	s.publish(ctx, req.URL, trace, outcome)
	return outcome
}

func (s *ParserService) parse(ctx context.Context, req *models.ParseRequest, opts models.ParseOptions, trace *parseTrace) (*models.VideoDescriptor, error) {
	// 1. 按平台提取链接, auto 时先识别平台
	requested := models.ParsePlatform(req.Platform)
	normPlatform := requested
	if requested == models.PlatformAuto {
		normPlatform = s.detector.Detect(req.URL)
	}

	normalized, err := utils.NormalizeShareURL(req.URL, normPlatform)
	if err != nil {
		return nil, err
	}
	trace.normalizedURL = normalized

	// 2. 宽松校验
	if !utils.IsPlausibleURL(normalized) {
		return nil, utils.ErrInvalidURL
	}

	platform := s.detector.Detect(normalized)
	if platform == models.PlatformUnknown && requested != models.PlatformAuto {
		platform = requested
	}
	trace.platform = platform

	s.logger.Info("处理URL",
		zap.String("url", req.URL),
		zap.String("normalized_url", normalized),
		zap.String("platform", string(platform)),
	)

	if s.cache != nil && !req.SkipCache {
		if cached, err := s.cache.Get(ctx, normalized, platform, opts); err == nil {
			trace.cached = true
			return cached, nil
		}
	}

	// 3. 获取密钥
	key, err := s.keys.GetAvailableKey(ctx)
	if err != nil {
		return nil, err
	}
	trace.keyID = key.ID
	s.logger.Info("选择密钥", zap.Int64("key_id", key.ID), zap.String("key_name", key.KeyName))

	// 4. 调用上游
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	resp, err := s.upstream.Call(ctx, normalized, key.KeyValue, platform)
	s.limiter.Release()
	if err != nil {
		return nil, err
	}

	// 5. 标准化响应
	desc, err := utils.NormalizeResponse(resp, opts)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, normalized, platform, opts, desc); err != nil {
			s.logger.Warn("failed to cache result", zap.Error(err))
		}
	}

	return desc, nil
}

// publish 发布解析事件, 失败只记录日志
func (s *ParserService) publish(ctx context.Context, rawURL string, trace *parseTrace, outcome *models.ParseOutcome) {
	if s.publisher == nil {
		return
	}

	event := mq.NewParseEvent(rawURL, trace.normalizedURL, trace.platform, outcome)
	event.KeyID = trace.keyID
	event.Cached = trace.cached

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()

	if err := s.publisher.PublishParseEvent(pubCtx, event); err != nil {
		s.logger.Warn("failed to publish parse event", zap.Error(err))
	}
}

// SupportedPlatforms 支持的平台列表
func (s *ParserService) SupportedPlatforms() []models.PlatformInfo {
	return models.SupportedPlatforms()
}

// IsSupported 文本中是否包含支持的平台域名
func (s *ParserService) IsSupported(text string) bool {
	return s.detector.IsSupported(text)
}
