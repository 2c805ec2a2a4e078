package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"vextract/parse-gateway/internal/utils"
)

// GetAdapter GET 查询参数调用, 405 或域名解析失败时改用表单 POST 重试一次
type GetAdapter struct {
	client *Client
}

// NewGetAdapter 创建GET适配器
func NewGetAdapter(client *Client) *GetAdapter {
	return &GetAdapter{client: client}
}

// Call 调用上游接口
func (a *GetAdapter) Call(ctx context.Context, videoURL, credential string) (map[string]any, error) {
	params := url.Values{}
	params.Set("key", credential)
	params.Set("url", videoURL)

	a.client.logger.Info("调用第三方API",
		zap.String("endpoint", a.client.baseURL),
		zap.String("url", videoURL),
		zap.String("key", utils.MaskKey(credential)),
	)

	data, err := a.client.send(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.client.baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.URL.RawQuery = mergeQuery(req.URL.RawQuery, params)
		req.Header.Set("User-Agent", a.client.userAgent)
		return req, nil
	})
	if err == nil {
		return data, nil
	}

	if !shouldFallback(err) {
		return nil, err
	}

	a.client.logger.Info("GET请求失败，尝试POST请求", zap.Error(err))
	return a.client.send(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.client.baseURL, strings.NewReader(params.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
		req.Header.Set("User-Agent", a.client.userAgent)
		return req, nil
	})
}

// shouldFallback 仅 405 和域名解析失败触发降级
func shouldFallback(err error) bool {
	var httpErr *utils.UpstreamHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusMethodNotAllowed
	}
	return isDNSFailure(err)
}

func mergeQuery(existing string, params url.Values) string {
	if existing == "" {
		return params.Encode()
	}
	return existing + "&" + params.Encode()
}
