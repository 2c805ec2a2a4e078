package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"vextract/parse-gateway/internal/utils"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "VideoExtractBot/1.0"
	maxResponseBody  = 8 << 20
)

// Config 上游接口配置
type Config struct {
	BaseURL   string
	Timeout   time.Duration // 单次请求超时, 降级请求单独计时
	UserAgent string
}

// Client 上游解析接口客户端
type Client struct {
	baseURL    string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 创建上游客户端, httpClient 为空时使用默认客户端
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		logger:     logger,
	}
}

// requestBuilder 在带超时的上下文中构造请求
type requestBuilder func(ctx context.Context) (*http.Request, error)

// send 执行一次请求并将响应解码为 JSON 对象
func (c *Client) send(ctx context.Context, build requestBuilder) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrUpstreamTransport, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("API响应错误",
			zap.String("method", req.Method),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(body, 512)),
		)
		return nil, &utils.UpstreamHTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil || out == nil {
		c.logger.Error("API响应不是JSON对象",
			zap.String("method", req.Method),
			zap.ByteString("body", truncate(body, 512)),
		)
		return nil, utils.ErrMalformedResponse
	}

	if code, _ := out["code"].(float64); code != 200 {
		c.logger.Warn("第三方API返回错误",
			zap.Any("code", out["code"]),
			zap.Any("msg", out["msg"]),
		)
	}

	return out, nil
}

// classifyTransportError 区分超时与网络错误, 保留原始错误链
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", utils.ErrUpstreamTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", utils.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %w", utils.ErrUpstreamTransport, err)
}

// isDNSFailure 域名解析失败
func isDNSFailure(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
