package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vextract/parse-gateway/internal/models"
)

// Recovery Panic 恢复中间件
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("request_id", c.GetString(ContextKeyRequestID)),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)

				models.Error(c, http.StatusInternalServerError, "服务器内部错误", gin.H{
					"error":      fmt.Sprint(err),
					"request_id": c.GetString(ContextKeyRequestID),
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}
