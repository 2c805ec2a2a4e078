package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"vextract/parse-gateway/internal/config"
	"vextract/parse-gateway/internal/models"
)

// 限流提示
const (
	MsgGeneralLimited = "请求过于频繁，请稍后再试"
	MsgParseLimited   = "视频解析请求过于频繁，请稍后再试"
	MsgAdminLimited   = "管理操作过于频繁，请稍后再试"
)

// RateLimiter 按客户端 IP 限流, 窗口内最多 Max 次请求, 令牌按窗口均匀恢复
type RateLimiter struct {
	limit    config.WindowLimit
	msg      string
	limiters sync.Map
}

// NewRateLimiter 创建限流器
func NewRateLimiter(limit config.WindowLimit, msg string) *RateLimiter {
	return &RateLimiter{limit: limit, msg: msg}
}

// getLimiter 获取 IP 对应的限流器
func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(ip); ok {
		return limiter.(*rate.Limiter)
	}

	every := rate.Every(rl.limit.Window / time.Duration(rl.limit.Max))
	limiter, _ := rl.limiters.LoadOrStore(ip, rate.NewLimiter(every, rl.limit.Max))
	return limiter.(*rate.Limiter)
}

// Allow 该 IP 是否还能继续请求
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.limit.Max <= 0 || rl.limit.Window <= 0 {
		return true
	}
	return rl.getLimiter(ip).Allow()
}

// Middleware 限流中间件
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.Allow(ip) {
			models.Error(c, http.StatusTooManyRequests, rl.msg, gin.H{
				"limit":  rl.limit.Max,
				"window": rl.limit.Window.String(),
				"ip":     ip,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GeneralRateLimit 全局接口限流
func GeneralRateLimit(cfg *config.RateLimitConfig) gin.HandlerFunc {
	return NewRateLimiter(cfg.General, MsgGeneralLimited).Middleware()
}

// ParseRateLimit 视频解析接口限流
func ParseRateLimit(cfg *config.RateLimitConfig) gin.HandlerFunc {
	return NewRateLimiter(cfg.Parse, MsgParseLimited).Middleware()
}

// AdminRateLimit 管理接口限流
func AdminRateLimit(cfg *config.RateLimitConfig) gin.HandlerFunc {
	return NewRateLimiter(cfg.Admin, MsgAdminLimited).Middleware()
}
