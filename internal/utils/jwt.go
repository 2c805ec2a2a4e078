package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access_token"
	TokenTypeRefresh = "refresh_token"

	tokenIssuer = "video-extract-app"
)

// Claims 小程序会话令牌载荷
type Claims struct {
	UserID int64  `json:"userId"`
	OpenID string `json:"openid"`
	Phone  string `json:"phone,omitempty"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// JWTUtil 签发和校验 HS256 会话令牌
type JWTUtil struct {
	secret []byte
	ttl    map[string]time.Duration
	parser *jwt.Parser
}

// NewJWTUtil 创建 JWT 工具
func NewJWTUtil(secret string, accessTokenTTL, refreshTokenTTL time.Duration) *JWTUtil {
	return &JWTUtil{
		secret: []byte(secret),
		ttl: map[string]time.Duration{
			TokenTypeAccess:  accessTokenTTL,
			TokenTypeRefresh: refreshTokenTTL,
		},
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// GenerateToken 生成 Access Token
func (j *JWTUtil) GenerateToken(userID int64, openID, phone string) (string, error) {
	return j.sign(&Claims{UserID: userID, OpenID: openID, Phone: phone, Type: TokenTypeAccess})
}

// GenerateRefreshToken 生成 Refresh Token, 不携带手机号
func (j *JWTUtil) GenerateRefreshToken(userID int64, openID string) (string, error) {
	return j.sign(&Claims{UserID: userID, OpenID: openID, Type: TokenTypeRefresh})
}

// sign 每个令牌带唯一 jti, 同一秒内签发的令牌也互不相同
func (j *JWTUtil) sign(claims *Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   claims.OpenID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl[claims.Type])),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", claims.Type, err)
	}
	return signed, nil
}

// ParseToken 校验签名、签发方和有效期, 过期错误可用 errors.Is(err, jwt.ErrTokenExpired) 判断
func (j *JWTUtil) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := j.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// GetAccessTokenTTL Access Token 有效期(秒)
func (j *JWTUtil) GetAccessTokenTTL() int64 {
	return int64(j.ttl[TokenTypeAccess].Seconds())
}
