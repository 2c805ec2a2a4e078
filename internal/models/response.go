package models

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ContextKeyStartTime 请求开始时间在 gin 上下文中的键
const ContextKeyStartTime = "request_start"

// Response 统一响应结构
type Response struct {
	Code     int     `json:"code"`
	Msg      string  `json:"msg"`
	Data     any     `json:"data"`
	Debug    any     `json:"debug"`
	ExecTime float64 `json:"exec_time"`
	UserIP   string  `json:"user_ip"`
}

// execTime 计算请求耗时(秒)
func execTime(c *gin.Context) float64 {
	start := c.GetTime(ContextKeyStartTime)
	if start.IsZero() {
		return 0
	}
	return time.Since(start).Seconds()
}

// JSON 写出统一响应, 调试信息仅在 debug 模式下返回
func JSON(c *gin.Context, status int, msg string, data, debug any) {
	if !gin.IsDebugging() {
		debug = nil
	}
	c.JSON(status, Response{
		Code:     status,
		Msg:      msg,
		Data:     data,
		Debug:    debug,
		ExecTime: execTime(c),
		UserIP:   c.ClientIP(),
	})
}

// JSONWithTime 写出统一响应并使用调用方给出的耗时
func JSONWithTime(c *gin.Context, status int, msg string, data, debug any, seconds float64) {
	if !gin.IsDebugging() {
		debug = nil
	}
	c.JSON(status, Response{
		Code:     status,
		Msg:      msg,
		Data:     data,
		Debug:    debug,
		ExecTime: seconds,
		UserIP:   c.ClientIP(),
	})
}

// Success 成功响应
func Success(c *gin.Context, msg string, data any) {
	JSON(c, http.StatusOK, msg, data, nil)
}

// Error 错误响应
func Error(c *gin.Context, code int, msg string, debug any) {
	JSON(c, code, msg, nil, debug)
}

// BadRequest 请求错误
func BadRequest(c *gin.Context, msg string, debug any) {
	Error(c, http.StatusBadRequest, msg, debug)
}

// Unauthorized 未授权
func Unauthorized(c *gin.Context, msg string) {
	Error(c, http.StatusUnauthorized, msg, nil)
}

// NotFound 未找到
func NotFound(c *gin.Context, msg string) {
	Error(c, http.StatusNotFound, msg, nil)
}

// InternalError 服务器错误
func InternalError(c *gin.Context, msg string, debug any) {
	Error(c, http.StatusInternalServerError, msg, debug)
}
