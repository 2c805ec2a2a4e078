package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"vextract/parse-gateway/internal/config"
	"vextract/parse-gateway/internal/utils"
)

// access_token 提前失效的余量
const accessTokenSafetyMargin = 300 * time.Second

// AccessTokenCache 微信 access_token 缓存
type AccessTokenCache interface {
	GetAccessToken(ctx context.Context) (string, error)
	SetAccessToken(ctx context.Context, token string, ttl time.Duration) error
}

// Session jscode2session 返回
type Session struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	UnionID    string `json:"unionid"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
}

type phoneNumberResponse struct {
	ErrCode   int    `json:"errcode"`
	ErrMsg    string `json:"errmsg"`
	PhoneInfo struct {
		PhoneNumber     string `json:"phoneNumber"`
		PurePhoneNumber string `json:"purePhoneNumber"`
		CountryCode     string `json:"countryCode"`
	} `json:"phone_info"`
}

// WeChatClient 微信开放接口客户端
type WeChatClient struct {
	cfg        *config.WeChatConfig
	httpClient *http.Client
	tokens     AccessTokenCache
	logger     *zap.Logger
}

// NewWeChatClient 创建微信客户端, tokens 为空时每次都重新获取 access_token
func NewWeChatClient(cfg *config.WeChatConfig, httpClient *http.Client, tokens AccessTokenCache, logger *zap.Logger) *WeChatClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &WeChatClient{
		cfg:        cfg,
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
	}
}

// Code2Session 使用登录凭证换取 openid
func (c *WeChatClient) Code2Session(ctx context.Context, code string) (*Session, error) {
	params := url.Values{}
	params.Set("appid", c.cfg.AppID)
	params.Set("secret", c.cfg.AppSecret)
	params.Set("js_code", code)
	params.Set("grant_type", "authorization_code")

	var session Session
	if err := c.getJSON(ctx, "/sns/jscode2session", params, &session); err != nil {
		return nil, err
	}
	if session.ErrCode != 0 {
		return nil, fmt.Errorf("%w: 微信接口错误 %d - %s", utils.ErrWeChatLogin, session.ErrCode, session.ErrMsg)
	}
	if session.OpenID == "" {
		return nil, fmt.Errorf("%w: 未返回openid", utils.ErrWeChatLogin)
	}
	return &session, nil
}

// AccessToken 获取 access_token, 优先使用缓存
func (c *WeChatClient) AccessToken(ctx context.Context) (string, error) {
	if c.tokens != nil {
		if token, err := c.tokens.GetAccessToken(ctx); err == nil && token != "" {
			return token, nil
		}
	}

	params := url.Values{}
	params.Set("grant_type", "client_credential")
	params.Set("appid", c.cfg.AppID)
	params.Set("secret", c.cfg.AppSecret)

	var resp accessTokenResponse
	if err := c.getJSON(ctx, "/cgi-bin/token", params, &resp); err != nil {
		return "", err
	}
	if resp.ErrCode != 0 || resp.AccessToken == "" {
		return "", fmt.Errorf("获取access_token失败: %d - %s", resp.ErrCode, resp.ErrMsg)
	}

	if c.tokens != nil {
		ttl := time.Duration(resp.ExpiresIn)*time.Second - accessTokenSafetyMargin
		if ttl > 0 {
			if err := c.tokens.SetAccessToken(ctx, resp.AccessToken, ttl); err != nil {
				c.logger.Warn("failed to cache access_token", zap.Error(err))
			}
		}
	}
	return resp.AccessToken, nil
}

// PhoneNumber 使用手机号凭证获取手机号
func (c *WeChatClient) PhoneNumber(ctx context.Context, code string) (string, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return "", err
	}

	endpoint := c.cfg.BaseURL + "/wxa/business/getuserphonenumber?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp phoneNumberResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.ErrCode != 0 {
		return "", fmt.Errorf("获取手机号失败: %d - %s", resp.ErrCode, resp.ErrMsg)
	}
	return resp.PhoneInfo.PhoneNumber, nil
}

func (c *WeChatClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *WeChatClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wechat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wechat request failed: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode wechat response: %w", err)
	}
	return nil
}
