package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

// 认证信息在 gin 上下文中的键
const (
	ContextKeyUserID = "userId"
	ContextKeyOpenID = "openid"
	ContextKeyToken  = "token"
)

// TokenVerifier 校验 Access Token
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*utils.Claims, error)
}

// JWTAuth JWT 认证中间件
func JWTAuth(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			models.Unauthorized(c, "未提供认证令牌")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			models.Unauthorized(c, "认证令牌格式错误")
			c.Abort()
			return
		}

		claims, err := verifier.VerifyAccessToken(c.Request.Context(), token)
		if err != nil {
			logger.Debug("token verification failed", zap.Error(err))
			models.Unauthorized(c, tokenErrorMessage(err))
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyOpenID, claims.OpenID)
		c.Set(ContextKeyToken, token)
		c.Next()
	}
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "认证令牌已过期"
	case errors.Is(err, utils.ErrTokenRevoked):
		return utils.ErrTokenRevoked.Error()
	default:
		return utils.ErrInvalidToken.Error()
	}
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextKeyUserID)
}

// GetToken 从上下文获取当前 Access Token
func GetToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}
