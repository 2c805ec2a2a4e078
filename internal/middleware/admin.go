package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

// AdminTokenHeader 管理令牌请求头
const AdminTokenHeader = "X-Admin-Token"

// AdminAuth 管理接口认证, tokenHash 为 bcrypt 哈希, 为空时不校验
func AdminAuth(tokenHash string, logger *zap.Logger) gin.HandlerFunc {
	if tokenHash == "" {
		logger.Warn("admin token hash not configured, admin routes are unprotected")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		token := c.GetHeader(AdminTokenHeader)
		if token == "" {
			models.Unauthorized(c, "缺少管理令牌")
			c.Abort()
			return
		}
		if err := utils.CompareSecret(tokenHash, token); err != nil {
			logger.Warn("invalid admin token", zap.String("client_ip", c.ClientIP()))
			models.Unauthorized(c, "管理令牌无效")
			c.Abort()
			return
		}
		c.Next()
	}
}
