package utils

import (
	"errors"
	"fmt"
)

var (
	// 解析流程错误
	ErrEmptyInput        = errors.New("URL不能为空")
	ErrInvalidURL        = errors.New("无效的URL格式")
	ErrNoActiveKey       = errors.New("没有可用的API密钥")
	ErrUpstreamTimeout   = errors.New("API调用超时，请稍后重试")
	ErrUpstreamTransport = errors.New("网络连接失败，请检查网络状态")
	ErrUpstreamHTTP      = errors.New("API调用失败")
	ErrMalformedResponse = errors.New("API响应格式错误")

	// 密钥管理错误
	ErrKeyNotFound      = errors.New("密钥不存在")
	ErrKeyNameExists    = errors.New("密钥名称已存在")
	ErrInvalidKeyName   = errors.New("密钥名称格式错误")
	ErrNoFieldsToUpdate = errors.New("没有需要更新的字段")
	ErrEmptyIDList      = errors.New("ID列表不能为空")

	// 公告错误
	ErrAnnouncementNotFound = errors.New("公告不存在")
	ErrInvalidTimeRange     = errors.New("结束时间不能早于开始时间")

	// 认证错误
	ErrWeChatLogin  = errors.New("微信登录失败")
	ErrInvalidToken = errors.New("无效的认证令牌")
	ErrTokenRevoked = errors.New("认证令牌已失效")
	ErrUserNotFound = errors.New("用户不存在")

	// 系统错误
	ErrCacheMiss  = errors.New("cache miss")
	ErrNoDatabase = errors.New("数据库不可用")
)

// UpstreamHTTPError 上游返回非 2xx 状态
type UpstreamHTTPError struct {
	StatusCode int
	Status     string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUpstreamHTTP.Error(), e.Status)
}

// Is 使 errors.Is(err, ErrUpstreamHTTP) 成立
func (e *UpstreamHTTPError) Is(target error) bool {
	return target == ErrUpstreamHTTP
}

// IsClientError 是否是调用方输入导致的错误
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrInvalidURL)
}

// IsUpstreamError 是否是上游或网络错误
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstreamTimeout) ||
		errors.Is(err, ErrUpstreamTransport) ||
		errors.Is(err, ErrUpstreamHTTP) ||
		errors.Is(err, ErrMalformedResponse)
}

// 面向用户的错误信息, 按优先级匹配
var userFacingErrors = []error{
	ErrEmptyInput,
	ErrInvalidURL,
	ErrNoActiveKey,
	ErrUpstreamTimeout,
	ErrUpstreamTransport,
	ErrMalformedResponse,
}

// UserMessage 返回不含底层细节的错误信息
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *UpstreamHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error()
	}
	for _, target := range userFacingErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
