package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"vextract/parse-gateway/internal/utils"
)

// 小红书请求需要模拟浏览器同源 XHR
var xiaohongshuHeaders = map[string]string{
	"Accept":             "*/*",
	"Accept-Language":    "zh-CN,zh;q=0.9",
	"Connection":         "keep-alive",
	"Content-Type":       "application/json",
	"Origin":             "https://www.52api.cn",
	"Referer":            "https://www.52api.cn/doc/64",
	"Sec-Fetch-Dest":     "empty",
	"Sec-Fetch-Mode":     "cors",
	"Sec-Fetch-Site":     "same-origin",
	"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36",
	"X-Requested-With":   "XMLHttpRequest",
	"sec-ch-ua":          `"Chromium";v="142", "Google Chrome";v="142", "Not_A Brand";v="99"`,
	"sec-ch-ua-mobile":   "?0",
	"sec-ch-ua-platform": `"Windows"`,
}

// xiaohongshuRequest JSON 请求体
type xiaohongshuRequest struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// XiaohongshuAdapter 小红书适配器, JSON POST 且不降级
type XiaohongshuAdapter struct {
	client *Client
}

// NewXiaohongshuAdapter 创建小红书适配器
func NewXiaohongshuAdapter(client *Client) *XiaohongshuAdapter {
	return &XiaohongshuAdapter{client: client}
}

// Call 调用上游接口
func (a *XiaohongshuAdapter) Call(ctx context.Context, videoURL, credential string) (map[string]any, error) {
	encoded := EncodeURIComponent(videoURL)
	body, err := json.Marshal(xiaohongshuRequest{Key: credential, URL: encoded})
	if err != nil {
		return nil, err
	}

	a.client.logger.Info("使用JSON POST方式调用第三方API (小红书)",
		zap.String("endpoint", a.client.baseURL),
		zap.String("originalUrl", videoURL),
		zap.String("encodedUrl", encoded),
		zap.String("key", utils.MaskKey(credential)),
	)

	return a.client.send(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.client.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		for k, v := range xiaohongshuHeaders {
			req.Header.Set(k, v)
		}
		return req, nil
	})
}

// EncodeURIComponent 按 ECMAScript encodeURIComponent 规则编码
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	return componentReplacer.Replace(escaped)
}

var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
