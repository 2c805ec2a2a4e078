package models

import "time"

// User 小程序用户
type User struct {
	ID            int64      `json:"id"`
	OpenID        string     `json:"openid"`
	UnionID       *string    `json:"unionid,omitempty"`
	Phone         *string    `json:"phone"`
	LoginCount    int        `json:"login_count"`
	LastLoginTime *time.Time `json:"last_login_time"`
	CreatedAt     time.Time  `json:"created_at"`
}

// WeChatLoginRequest 微信登录请求
type WeChatLoginRequest struct {
	LoginCode string `json:"loginCode" binding:"required"`
	PhoneCode string `json:"phoneCode"`
}

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    int64   `json:"expiresIn"`
	OpenID       string  `json:"openid"`
	Phone        *string `json:"phone"`
	UserID       int64   `json:"userId"`
}

// TokenPair 令牌对
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}
